package gateway

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	gatewaydb "github.com/hotelchain/gateway/internal/gateway/db"
	"github.com/hotelchain/gateway/pkg/audit"
	"github.com/hotelchain/gateway/pkg/httpclient"
	"github.com/hotelchain/gateway/pkg/middleware"
	"github.com/hotelchain/gateway/pkg/migration"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// defaultUpstreamTimeout はアップストリーム呼び出しの既定タイムアウト。
// configuration_settingsのupstream_timeout_msで上書きできる。
const defaultUpstreamTimeout = 10 * time.Second

// settingKeyUpstreamTimeoutMs はアップストリームタイムアウトの設定キー。
const settingKeyUpstreamTimeoutMs = "upstream_timeout_ms"

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// queries はゲートウェイDBへのクエリ実行オブジェクト。
	queries *gatewaydb.Queries
	// jwtSecret はJWT検証用の秘密鍵。ユーザー管理サービスと共有する。
	jwtSecret string
	// registry は論理サービス名からベースURLへのレジストリ。
	registry *ServiceRegistry
	// forwarder はアップストリームへの同期プロキシ。
	forwarder *Forwarder
	// facade は各サービスの代表的な操作の窓口。
	facade *Facade
	// sessions はセッションの有効性判定を行うバリデータ。
	sessions *SessionValidator
	// requestLogger は全リクエストの結果を記録するロガー。
	requestLogger *RequestLogger
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(port string) (*Server, error) {
	dbPath := getEnvOr("GATEWAY_DB_PATH", "/data/gateway.db")
	sqlDB, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := migration.Run(sqlDB, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	queries := gatewaydb.New(sqlDB)

	registry := NewServiceRegistry(map[string]string{
		ServiceUserManagement: getEnvOr("USER_MANAGEMENT_URL", "http://localhost:8081"),
		ServiceRoomManagement: getEnvOr("ROOM_MANAGEMENT_URL", "http://localhost:8082"),
		ServiceBookingReview:  getEnvOr("BOOKING_REVIEW_URL", "http://localhost:8083"),
	})

	forwarder := NewForwarder(registry, httpclient.New(upstreamTimeout(queries)))

	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	s := &Server{
		router:        router,
		port:          port,
		db:            sqlDB,
		queries:       queries,
		jwtSecret:     jwtSecret,
		registry:      registry,
		forwarder:     forwarder,
		facade:        NewFacade(forwarder),
		sessions:      NewSessionValidator(queries),
		requestLogger: NewRequestLogger(queries),
	}
	s.setupRoutes()

	return s, nil
}

// upstreamTimeout はアップストリーム呼び出しのタイムアウトを決定する。
// configuration_settingsに正の値が設定されていればそれを優先する。
func upstreamTimeout(queries *gatewaydb.Queries) time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	setting, err := queries.GetSetting(ctx, settingKeyUpstreamTimeoutMs)
	if err != nil {
		return defaultUpstreamTimeout
	}
	ms, err := strconv.Atoi(setting.SettingValue)
	if err != nil || ms <= 0 {
		log.Printf("[Gateway] %sの設定値が不正なため既定値を使用: %q", settingKeyUpstreamTimeoutMs, setting.SettingValue)
		return defaultUpstreamTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

// Run はHTTPサーバーを起動する。
// 期限切れセッションの定期清掃もバックグラウンドで開始する。
func (s *Server) Run() error {
	go s.purgeExpiredSessionsLoop()
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// purgeExpiredSessionsLoop は期限切れセッションを1時間ごとに削除する。
func (s *Server) purgeExpiredSessionsLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		deleted, err := s.sessions.PurgeExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("[Gateway] セッション清掃エラー: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("[Gateway] 期限切れセッションを%d件削除しました", deleted)
		}
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 全ルート共通: 身元抽出 → セッションtouch → リクエスト記録
	s.router.Use(s.requestLogger.Middleware())
	s.router.Use(middleware.Identity(s.jwtSecret))
	s.router.Use(s.touchSession())

	// ゲートウェイ自身の死活確認
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	// 認証エンドポイント（認証不要・ユーザー管理サービスへ素通し）
	auth := s.router.Group("/api/auth")
	{
		auth.POST("/login", s.handlePassthrough(ServiceUserManagement, "/api/users/login"))
		auth.POST("/register", s.handlePassthrough(ServiceUserManagement, "/api/users/register"))
	}

	// 静的バインドの素通しプロキシ（認可必須・アップストリームの応答をそのまま返す）
	proxy := s.router.Group("/api", s.authorize())
	{
		bindings := []struct {
			prefix  string
			service string
		}{
			{"/users", ServiceUserManagement},
			{"/hotels", ServiceRoomManagement},
			{"/reservations", ServiceBookingReview},
			{"/reviews", ServiceBookingReview},
		}
		for _, b := range bindings {
			// コレクション直下（/api/users）とサブパス（/api/users/**）の両方を受ける
			proxy.Any(b.prefix, s.handleBoundProxy(b.service, "/api"+b.prefix))
			proxy.Any(b.prefix+"/*path", s.handleBoundProxy(b.service, "/api"+b.prefix))
		}
	}

	gw := s.router.Group("/api/gateway")

	// 明示エンドポイント（エンベロープ形式・認証系のみ認可不要）
	gw.POST("/auth/login", s.envelopeBody(s.facade.AuthenticateUser))
	gw.POST("/auth/register", s.envelopeBody(s.facade.CreateUser))

	// コアサービスのヘルス集約（監視用・認可不要）
	gw.GET("/health", s.handleAggregatedHealth())

	authed := gw.Group("", s.authorize())
	{
		authed.GET("/users", s.envelopeGet(s.facade.GetAllUsers))
		authed.GET("/rooms", s.envelopeGet(s.facade.GetAllRooms))
		authed.GET("/rooms/sorted", s.envelopeGet(s.facade.GetRoomsSorted))
		authed.GET("/rooms/available", s.envelopeGet(s.facade.GetAvailableRooms))
		authed.POST("/rooms/filter", s.envelopeBody(s.facade.FilterRooms))
		authed.POST("/rooms", s.envelopeBody(s.facade.CreateRoom))
		authed.GET("/bookings", s.envelopeGet(s.facade.GetAllBookings))
		authed.POST("/bookings", s.envelopeBody(s.facade.CreateBooking))
		authed.POST("/bookings/export", s.envelopeBody(s.facade.ExportBookings))
		authed.GET("/reviews/room/:roomID", s.handleReviewsByRoom())
		authed.POST("/reviews", s.envelopeBody(s.facade.CreateReview))

		authed.GET("/dashboard", s.handleDashboard())

		// サービスレジストリの管理
		authed.GET("/services", s.handleListServices())
		authed.POST("/services", s.handleRegisterService())
		authed.DELETE("/services/:name", s.handleUnregisterService())

		// セッションのライフサイクル管理
		authed.POST("/sessions", s.handleCreateSession())
		authed.DELETE("/sessions/:id", s.handleInvalidateSession())
	}

	// 汎用動的プロキシ（エンベロープ形式・認可必須）
	gw.Any("/:service/*path", s.authorize(), s.handleGenericProxy())
}

// authorize は認可チェーンを評価するGinミドルウェアを返す。
// 認可が通らない限りアップストリームへの転送は行われない。
func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(middleware.GetRole(c))
		if !Authorize(role, c.Request.Method, c.Request.URL.Path) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "この操作を行う権限がありません",
			})
			return
		}
		c.Next()
	}
}

// touchSession はリクエストに有効なセッションIDが付与されている場合に
// 有効期限を延長するGinミドルウェアを返す。無効なセッションIDは無視される。
func (s *Server) touchSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID := c.GetHeader(headerKeySessionID); sessionID != "" {
			if s.sessions.IsActive(c.Request.Context(), sessionID) {
				if err := s.sessions.Touch(c.Request.Context(), sessionID); err != nil {
					log.Printf("[Gateway] セッション延長に失敗: %v", err)
				}
			}
		}
		c.Next()
	}
}

// upstreamContext は転送用のコンテキストを生成する。
// 認証済みユーザーのIDをアップストリームに伝播する。
func (s *Server) upstreamContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if userID, ok := middleware.GetUserID(c); ok {
		ctx = httpclient.WithUserID(ctx, strconv.FormatInt(userID, 10))
	}
	return ctx
}

// readBody はリクエストボディを読み取る。読み取れない場合はnilを返す。
func readBody(c *gin.Context) []byte {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[Gateway] リクエストボディの読み取りに失敗: %v", err)
		return nil
	}
	return body
}

// handleGenericProxy は /api/gateway/{service}/** への汎用動的プロキシハンドラを返す。
// 結果はServiceResponseエンベロープとして、アップストリームのステータスコードで返す。
func (s *Server) handleGenericProxy() gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceName := c.Param("service")
		endpoint := c.Param("path")
		if q := c.Request.URL.RawQuery; q != "" {
			endpoint += "?" + q
		}

		resp := s.forwarder.Route(s.upstreamContext(c), serviceName, endpoint,
			c.Request.Method, readBody(c), c.Request.Header)
		c.JSON(resp.StatusCode, resp)
	}
}

// handleBoundProxy は特定サービスに静的にバインドされた素通しプロキシハンドラを返す。
// アップストリームのステータスコードとボディをそのまま返す。
func (s *Server) handleBoundProxy(serviceName, pathPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := pathPrefix + c.Param("path")
		if q := c.Request.URL.RawQuery; q != "" {
			endpoint += "?" + q
		}

		resp := s.forwarder.Route(s.upstreamContext(c), serviceName, endpoint,
			c.Request.Method, readBody(c), c.Request.Header)
		writeUpstream(c, resp)
	}
}

// handlePassthrough は固定エンドポイントへの素通しプロキシハンドラを返す。
func (s *Server) handlePassthrough(serviceName, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := endpoint
		if q := c.Request.URL.RawQuery; q != "" {
			target += "?" + q
		}

		resp := s.forwarder.Route(s.upstreamContext(c), serviceName, target,
			c.Request.Method, readBody(c), c.Request.Header)
		writeUpstream(c, resp)
	}
}

// writeUpstream はアップストリームの応答をそのままクライアントに返す。
// アップストリームに到達できなかった場合のみエンベロープで返す。
func writeUpstream(c *gin.Context, resp *ServiceResponse) {
	if resp.RawBody == nil {
		c.JSON(resp.StatusCode, resp)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, resp.RawBody)
}

// envelopeGet はボディなしのFacade操作をエンベロープで返すハンドラを返す。
func (s *Server) envelopeGet(op func(ctx context.Context) *ServiceResponse) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := op(s.upstreamContext(c))
		c.JSON(resp.StatusCode, resp)
	}
}

// envelopeBody はリクエストボディを転送するFacade操作をエンベロープで返すハンドラを返す。
func (s *Server) envelopeBody(op func(ctx context.Context, body []byte) *ServiceResponse) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := op(s.upstreamContext(c), readBody(c))
		c.JSON(resp.StatusCode, resp)
	}
}

// handleReviewsByRoom は指定客室のレビュー一覧を取得するハンドラを返す。
func (s *Server) handleReviewsByRoom() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := s.facade.GetReviewsByRoom(s.upstreamContext(c), c.Param("roomID"))
		c.JSON(resp.StatusCode, resp)
	}
}

// handleDashboard はユーザー・客室・予約を並行取得してまとめるハンドラを返す。
func (s *Server) handleDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.facade.DashboardData(s.upstreamContext(c)))
	}
}

// handleAggregatedHealth はコアサービスのヘルス状態を並行収集するハンドラを返す。
func (s *Server) handleAggregatedHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.forwarder.Aggregate(s.upstreamContext(c), coreServices...))
	}
}

// handleListServices は登録済みサービスの一覧を返すハンドラを返す。
func (s *Server) handleListServices() gin.HandlerFunc {
	return func(c *gin.Context) {
		services := make(map[string]string)
		for _, name := range s.registry.Names() {
			if url, err := s.registry.Resolve(name); err == nil {
				services[name] = url
			}
		}
		c.JSON(http.StatusOK, gin.H{"services": services})
	}
}

// registerServiceRequest はサービス登録リクエストのボディ。
type registerServiceRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required,url"`
}

// handleRegisterService はサービスをレジストリに登録するハンドラを返す。
// 既存の論理名に対しては上書き（冪等）となる。
func (s *Server) handleRegisterService() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nameとurlは必須です"})
			return
		}

		s.registry.Register(req.Name, req.URL)
		actorID, _ := middleware.GetUserID(c)
		audit.Emit(audit.ActionServiceRegistered, actorID, req.Name, gin.H{"url": req.URL})
		c.JSON(http.StatusOK, gin.H{"status": "registered", "name": req.Name})
	}
}

// handleUnregisterService はサービスの登録を解除するハンドラを返す。
func (s *Server) handleUnregisterService() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if !s.registry.IsRegistered(name) {
			c.JSON(http.StatusNotFound, gin.H{"error": "サービスが登録されていません: " + name})
			return
		}

		s.registry.Unregister(name)
		actorID, _ := middleware.GetUserID(c)
		audit.Emit(audit.ActionServiceUnregistered, actorID, name, nil)
		c.JSON(http.StatusOK, gin.H{"status": "unregistered", "name": name})
	}
}

// handleCreateSession は認証済みユーザーの新しいセッションを発行するハンドラを返す。
func (s *Server) handleCreateSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.GetUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		sessionID, err := s.sessions.Create(c.Request.Context(), userID)
		if err != nil {
			log.Printf("[Gateway] セッション作成に失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの作成に失敗しました"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session_id": sessionID})
	}
}

// handleInvalidateSession はセッションを無効化するハンドラを返す。
func (s *Server) handleInvalidateSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		if !s.sessions.IsActive(c.Request.Context(), sessionID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "セッションが存在しないか既に無効です"})
			return
		}

		if err := s.sessions.Invalidate(c.Request.Context(), sessionID); err != nil {
			log.Printf("[Gateway] セッション無効化に失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの無効化に失敗しました"})
			return
		}

		actorID, _ := middleware.GetUserID(c)
		audit.Emit(audit.ActionSessionInvalidated, actorID, sessionID, nil)
		c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
