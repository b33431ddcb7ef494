package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// ユーザー管理サービスが発行し、ゲートウェイが検証する。
// クレーム名はユーザー管理サービスのワイヤーフォーマットに合わせている。
type JWTClaims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID int64 `json:"userId"`
	// Role はユーザーの役割（CLIENT / EMPLOYEE / MANAGER / ADMINISTRATOR）。
	Role string `json:"role"`
	// HotelID はユーザーが所属するホテルのID。宿泊客の場合はnil。
	HotelID *int64 `json:"hotelId,omitempty"`
}

const (
	// contextKeyUserID はGinコンテキストにユーザーIDを格納するキー。
	contextKeyUserID = "user_id"
	// contextKeyRole はGinコンテキストにロールを格納するキー。
	contextKeyRole = "role"
	// contextKeyHotelID はGinコンテキストにホテルIDを格納するキー。
	contextKeyHotelID = "hotel_id"
)

// GenerateJWT はユーザー情報からJWTトークンを生成する。
// 本番ではユーザー管理サービスが発行するが、ゲートウェイのテストと
// 開発用トークン発行でも使用する。
func GenerateJWT(secret string, userID int64, username, role string, hotelID *int64) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "hotelchain-user-management",
		},
		UserID:  userID,
		Role:    role,
		HotelID: hotelID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// DecodeToken はJWTトークンを検証してクレームを取り出す。
// 署名不正・期限切れ・形式不正の場合はエラーを返す。
func DecodeToken(secret, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("トークンが無効")
	}
	return claims, nil
}

// Identity はAuthorizationヘッダーのBearerトークンからユーザーの身元を
// 取り出すGinミドルウェアを返す。トークンがない場合や検証に失敗した場合も
// リクエストを中断しない。身元が取れなかったリクエストはロールなしとして
// 後段の認可チェーンで拒否される（フェイルクローズド）。
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			if tokenString, found := strings.CutPrefix(authHeader, "Bearer "); found {
				if claims, err := DecodeToken(secret, tokenString); err == nil {
					c.Set(contextKeyUserID, claims.UserID)
					c.Set(contextKeyRole, claims.Role)
					if claims.HotelID != nil {
						c.Set(contextKeyHotelID, *claims.HotelID)
					}
				}
			}
		}
		c.Next()
	}
}

// GetUserID はGinコンテキストから認証済みユーザーのIDを取得する。
// 身元が取れていないリクエストでは ok=false を返す。
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(contextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetRole はGinコンテキストからユーザーのロールを取得する。
// 身元が取れていないリクエストでは空文字列を返す。
func GetRole(c *gin.Context) string {
	v, exists := c.Get(contextKeyRole)
	if !exists {
		return ""
	}
	role, _ := v.(string)
	return role
}

// GetHotelID はGinコンテキストからユーザーの所属ホテルIDを取得する。
func GetHotelID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(contextKeyHotelID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
