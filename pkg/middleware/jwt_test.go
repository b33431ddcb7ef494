package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// TestGenerateJWT はGenerateJWT関数を検証する。
func TestGenerateJWT(t *testing.T) {
	t.Parallel()

	t.Run("正常にJWTトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		hotelID := int64(3)
		tokenStr, err := GenerateJWT(testSecret, 123, "manager01", "MANAGER", &hotelID)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}
		if tokenStr == "" {
			t.Fatal("GenerateJWT()が空文字列を返した")
		}

		claims, err := DecodeToken(testSecret, tokenStr)
		if err != nil {
			t.Fatalf("トークンのデコードに失敗: %v", err)
		}
		if claims.UserID != 123 {
			t.Errorf("UserID = %d, want %d", claims.UserID, 123)
		}
		if claims.Role != "MANAGER" {
			t.Errorf("Role = %q, want %q", claims.Role, "MANAGER")
		}
		if claims.HotelID == nil || *claims.HotelID != 3 {
			t.Errorf("HotelID = %v, want 3", claims.HotelID)
		}
		if claims.Subject != "manager01" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "manager01")
		}
		if claims.Issuer != "hotelchain-user-management" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "hotelchain-user-management")
		}
	})

	t.Run("ホテルIDなしのトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 55, "guest01", "CLIENT", nil)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims, err := DecodeToken(testSecret, tokenStr)
		if err != nil {
			t.Fatalf("トークンのデコードに失敗: %v", err)
		}
		if claims.HotelID != nil {
			t.Errorf("HotelID = %v, want nil", claims.HotelID)
		}
	})

	t.Run("トークンの有効期限が24時間後であること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := GenerateJWT(testSecret, 1, "exp-user", "CLIENT", nil)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims, err := DecodeToken(testSecret, tokenStr)
		if err != nil {
			t.Fatalf("トークンのデコードに失敗: %v", err)
		}

		expectedExpiry := before.Add(24 * time.Hour)
		// 有効期限が24時間後の前後1分以内であること
		if claims.ExpiresAt.Time.Before(expectedExpiry.Add(-1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v が早すぎる", claims.ExpiresAt.Time)
		}
		if claims.ExpiresAt.Time.After(expectedExpiry.Add(1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v が遅すぎる", claims.ExpiresAt.Time)
		}
	})
}

// TestDecodeToken はDecodeToken関数を検証する。
func TestDecodeToken(t *testing.T) {
	t.Parallel()

	t.Run("署名シークレットが異なる場合にエラーが返ること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT("other-secret", 1, "user", "CLIENT", nil)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		if _, err := DecodeToken(testSecret, tokenStr); err == nil {
			t.Fatal("署名不正のトークンでエラーが返らなかった")
		}
	})

	t.Run("期限切れトークンの場合にエラーが返ること", func(t *testing.T) {
		t.Parallel()

		claims := JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
			UserID: 1,
			Role:   "ADMINISTRATOR",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenStr, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		if _, err := DecodeToken(testSecret, tokenStr); err == nil {
			t.Fatal("期限切れトークンでエラーが返らなかった")
		}
	})

	t.Run("形式不正のトークンの場合にエラーが返ること", func(t *testing.T) {
		t.Parallel()

		if _, err := DecodeToken(testSecret, "not-a-jwt-token"); err == nil {
			t.Fatal("形式不正のトークンでエラーが返らなかった")
		}
	})
}

// TestIdentity はIdentityミドルウェアを検証する。
func TestIdentity(t *testing.T) {
	t.Parallel()

	// newIdentityRouter はIdentityミドルウェアを適用し、コンテキストの
	// 身元情報をそのまま返すテスト用ルーターを生成する。
	newIdentityRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(Identity(testSecret))
		router.GET("/whoami", func(c *gin.Context) {
			userID, hasUser := GetUserID(c)
			c.JSON(http.StatusOK, gin.H{
				"user_id":  userID,
				"has_user": hasUser,
				"role":     GetRole(c),
			})
		})
		return router
	}

	t.Run("有効なトークンから身元が取り出されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, 77, "employee01", "EMPLOYEE", nil)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newIdentityRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		body := w.Body.String()
		if !containsAll(body, `"has_user":true`, `"role":"EMPLOYEE"`, `"user_id":77`) {
			t.Errorf("身元情報が正しく設定されていない: %s", body)
		}
	})

	t.Run("トークンが無い場合もリクエストが中断されないこと", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		w := httptest.NewRecorder()
		newIdentityRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if !containsAll(w.Body.String(), `"has_user":false`, `"role":""`) {
			t.Errorf("匿名リクエストの身元情報が不正: %s", w.Body.String())
		}
	})

	t.Run("不正なトークンはロールなしとして扱われること", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer broken-token")
		w := httptest.NewRecorder()
		newIdentityRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if !containsAll(w.Body.String(), `"has_user":false`, `"role":""`) {
			t.Errorf("不正トークンの身元情報が不正: %s", w.Body.String())
		}
	})
}

// containsAll はbodyが全ての部分文字列を含むかを返す。
func containsAll(body string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(body, sub) {
			return false
		}
	}
	return true
}
