package gateway

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// ホテルチェーンを構成するコアサービスの論理名。
const (
	// ServiceUserManagement はユーザー管理サービス（認証・ユーザーCRUD）。
	ServiceUserManagement = "user-management"
	// ServiceRoomManagement は客室管理サービス（ホテル・客室CRUD）。
	ServiceRoomManagement = "room-management"
	// ServiceBookingReview は予約・レビューサービス。
	ServiceBookingReview = "booking-review"
)

// coreServices はダッシュボードとヘルス集約の対象となるサービス一覧。
var coreServices = []string{
	ServiceUserManagement,
	ServiceRoomManagement,
	ServiceBookingReview,
}

// Facade は各バックエンドサービスの代表的な操作をゲートウェイ経由で
// 呼び出すための窓口。個々のエンドポイントのパスとメソッドの組を
// 一箇所に集約する。
type Facade struct {
	// forwarder はアップストリーム転送に使用するForwarder。
	forwarder *Forwarder
}

// NewFacade は新しいFacadeを生成する。
func NewFacade(forwarder *Forwarder) *Facade {
	return &Facade{forwarder: forwarder}
}

// AuthenticateUser はユーザー管理サービスにログインリクエストを転送する。
func (f *Facade) AuthenticateUser(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceUserManagement, "/api/users/login", http.MethodPost, body, nil)
}

// CreateUser はユーザー管理サービスにユーザー登録リクエストを転送する。
func (f *Facade) CreateUser(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceUserManagement, "/api/users/register", http.MethodPost, body, nil)
}

// GetAllUsers は全ユーザーの一覧を取得する。
func (f *Facade) GetAllUsers(ctx context.Context) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceUserManagement, "/api/users", http.MethodGet, nil, nil)
}

// GetAllRooms は全客室の一覧を取得する。
func (f *Facade) GetAllRooms(ctx context.Context) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceRoomManagement, "/api/rooms", http.MethodGet, nil, nil)
}

// GetRoomsSorted は料金順にソートされた客室一覧を取得する。
func (f *Facade) GetRoomsSorted(ctx context.Context) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceRoomManagement, "/api/rooms/sorted", http.MethodGet, nil, nil)
}

// GetAvailableRooms は空室の一覧を取得する。
func (f *Facade) GetAvailableRooms(ctx context.Context) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceRoomManagement, "/api/rooms/available", http.MethodGet, nil, nil)
}

// FilterRooms は条件に合致する客室の一覧を取得する。
func (f *Facade) FilterRooms(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceRoomManagement, "/api/rooms/filter", http.MethodPost, body, nil)
}

// CreateRoom は客室を新規作成する。
func (f *Facade) CreateRoom(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceRoomManagement, "/api/rooms", http.MethodPost, body, nil)
}

// CreateBooking は予約を新規作成する。
func (f *Facade) CreateBooking(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceBookingReview, "/api/bookings", http.MethodPost, body, nil)
}

// GetAllBookings は全予約の一覧を取得する。
func (f *Facade) GetAllBookings(ctx context.Context) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceBookingReview, "/api/bookings", http.MethodGet, nil, nil)
}

// ExportBookings は予約のエクスポートを依頼する。
// エクスポート形式の解釈は予約サービス側の責務で、ゲートウェイは関与しない。
func (f *Facade) ExportBookings(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceBookingReview, "/api/bookings/export", http.MethodPost, body, nil)
}

// GetReviewsByRoom は指定客室のレビュー一覧を取得する。
func (f *Facade) GetReviewsByRoom(ctx context.Context, roomID string) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceBookingReview, "/api/reviews/room/"+roomID, http.MethodGet, nil, nil)
}

// CreateReview はレビューを新規投稿する。
func (f *Facade) CreateReview(ctx context.Context, body []byte) *ServiceResponse {
	return f.forwarder.Route(ctx, ServiceBookingReview, "/api/reviews", http.MethodPost, body, nil)
}

// DashboardData はユーザー・客室・予約の一覧を並行に取得してまとめる。
// 個々のサービスの障害はそのサービスのエントリにのみ反映され、
// 他のサービスのデータ取得を妨げない。
func (f *Facade) DashboardData(ctx context.Context) map[string]any {
	var users, rooms, bookings *ServiceResponse

	var g errgroup.Group
	g.Go(func() error {
		users = f.GetAllUsers(ctx)
		return nil
	})
	g.Go(func() error {
		rooms = f.GetAllRooms(ctx)
		return nil
	})
	g.Go(func() error {
		bookings = f.GetAllBookings(ctx)
		return nil
	})
	_ = g.Wait()

	return map[string]any{
		"users":    users.Data,
		"rooms":    rooms.Data,
		"bookings": bookings.Data,
		"status":   "success",
	}
}
