package view_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jiancai-next/internal/backend"
	"github.com/jiancai-next/internal/config"
	"github.com/jiancai-next/internal/constants"
	"github.com/jiancai-next/internal/gueststore"
	"github.com/jiancai-next/internal/http/handlers/view"
	"github.com/jiancai-next/internal/http/response"
	"github.com/jiancai-next/internal/models"
	"github.com/jiancai-next/internal/realtime"
	"github.com/jiancai-next/internal/router"
	"github.com/jiancai-next/internal/session"
	"github.com/jiancai-next/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

type stubRemote struct {
	mu    sync.Mutex
	cart  models.Cart
	added []backend.AddItemInput
}

func (s *stubRemote) FetchCart(ctx context.Context) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := s.cart.Clone()
	return &clone, nil
}

func (s *stubRemote) AddItem(ctx context.Context, input backend.AddItemInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, input)
	return nil
}

func (s *stubRemote) UpdateItem(ctx context.Context, itemUID string, input backend.UpdateItemInput) error {
	return nil
}

func (s *stubRemote) RemoveItem(ctx context.Context, itemUID string) (*models.CartSummary, error) {
	return &models.CartSummary{Currency: "CNY"}, nil
}

type facadeTestEnv struct {
	engine  *gin.Engine
	session *session.Session
	guest   *gueststore.Store
	remote  *stubRemote
	store   *store.Store
}

func setupFacadeTest(t *testing.T) *facadeTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sess := session.New()
	guest, err := gueststore.OpenInMemory(fmt.Sprintf("facade_test_%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open guest store failed: %v", err)
	}

	uid := "cart-srv"
	remote := &stubRemote{cart: models.Cart{
		CartUID: &uid,
		Items: []models.CartItem{
			{UID: "item-1", ProductUID: "prod-1", Quantity: 2,
				PriceSnapshot: models.NewMoneyFromDecimal(decimal.RequireFromString("30.00"))},
		},
		Summary: models.CartSummary{ItemCount: 2, Currency: "CNY"},
	}}
	cartStore := store.New(remote)

	// ws 地址不可达即可：门面测试不依赖真实推送
	supervisor := realtime.NewSupervisor("ws://127.0.0.1:1/ws/cart", sess, cartStore)
	backendClient, err := backend.New(backend.Config{BaseURL: "http://127.0.0.1:1"}, sess)
	if err != nil {
		t.Fatalf("new backend client failed: %v", err)
	}

	handler := view.New(sess, cartStore, guest, backendClient, supervisor)
	engine := router.SetupRouter(&config.Config{}, handler)
	return &facadeTestEnv{engine: engine, session: sess, guest: guest, remote: remote, store: cartStore}
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	var envelope response.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope failed: %v (body: %s)", err, recorder.Body.String())
	}
	return recorder, envelope
}

func authenticate(t *testing.T, sess *session.Session) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	if err := sess.SetToken(token); err != nil {
		t.Fatalf("set token failed: %v", err)
	}
}

func TestFacadeGuestAddAndGet(t *testing.T) {
	env := setupFacadeTest(t)

	_, envelope := doJSON(t, env.engine, http.MethodPost, "/api/cart/items", gin.H{
		"product_uid":    "prod-1",
		"quantity":       2,
		"price_snapshot": "35.50",
		"product_name":   "多功能瓷砖胶",
	})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("guest add failed: %+v", envelope)
	}

	_, envelope = doJSON(t, env.engine, http.MethodGet, "/api/cart", nil)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("guest get failed: %+v", envelope)
	}
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data shape: %+v", envelope.Data)
	}
	if data["mode"] != constants.SessionModeGuest {
		t.Fatalf("expected guest mode, got %v", data["mode"])
	}
	cart, ok := data["cart"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing cart in payload: %+v", data)
	}
	items, ok := cart["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 guest item, got %+v", cart["items"])
	}
}

func TestFacadeGuestQuantityValidationInlineError(t *testing.T) {
	env := setupFacadeTest(t)

	_, envelope := doJSON(t, env.engine, http.MethodPost, "/api/cart/items", gin.H{
		"product_uid": "prod-1",
		"quantity":    -1,
	})
	if envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request, got %+v", envelope)
	}
	if envelope.Msg != constants.QuantityErrorMessage {
		t.Fatalf("expected inline message %q, got %q", constants.QuantityErrorMessage, envelope.Msg)
	}

	// 校验失败不落任何状态
	cart, err := env.guest.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("rejected add must not persist anything")
	}
}

func TestFacadeGuestUpdateMoveAndRemove(t *testing.T) {
	env := setupFacadeTest(t)
	row, err := env.guest.AddItem(gueststore.AddItemInput{
		ProductUID:    "prod-1",
		Quantity:      1,
		PriceSnapshot: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")),
	})
	if err != nil {
		t.Fatalf("seed guest item failed: %v", err)
	}

	_, envelope := doJSON(t, env.engine, http.MethodPut, "/api/cart/items/"+row.UID, gin.H{"quantity": 4})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("guest update failed: %+v", envelope)
	}

	_, envelope = doJSON(t, env.engine, http.MethodPut, "/api/cart/items/"+row.UID, gin.H{"is_saved_for_later": true})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("guest move-to-saved failed: %+v", envelope)
	}

	cart, err := env.guest.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(cart.SavedItems()) != 1 || cart.SavedItems()[0].Quantity != 4 {
		t.Fatalf("expected saved item with quantity 4, got %+v", cart.Items)
	}

	_, envelope = doJSON(t, env.engine, http.MethodDelete, "/api/cart/items/"+row.UID, nil)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("guest remove failed: %+v", envelope)
	}

	_, envelope = doJSON(t, env.engine, http.MethodDelete, "/api/cart/items/"+row.UID, nil)
	if envelope.StatusCode != response.CodeNotFound {
		t.Fatalf("expected not found for missing item, got %+v", envelope)
	}
}

func TestFacadeUpdateRequiresAField(t *testing.T) {
	env := setupFacadeTest(t)
	_, envelope := doJSON(t, env.engine, http.MethodPut, "/api/cart/items/item-x", gin.H{})
	if envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("expected bad request for empty update, got %+v", envelope)
	}
}

func TestFacadeAuthenticatedRoutesGoThroughStore(t *testing.T) {
	env := setupFacadeTest(t)
	authenticate(t, env.session)
	if err := env.store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch failed: %v", err)
	}

	_, envelope := doJSON(t, env.engine, http.MethodGet, "/api/cart", nil)
	data := envelope.Data.(map[string]interface{})
	if data["mode"] != constants.SessionModeAuthenticated {
		t.Fatalf("expected authenticated mode, got %v", data["mode"])
	}
	cart := data["cart"].(map[string]interface{})
	items := cart["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected store snapshot with 1 item, got %+v", items)
	}

	// 登录态加购走远端，不触本地游客存储
	_, envelope = doJSON(t, env.engine, http.MethodPost, "/api/cart/items", gin.H{
		"product_uid": "prod-2",
		"quantity":    1,
	})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("authed add failed: %+v", envelope)
	}
	if len(env.remote.added) != 1 || env.remote.added[0].ProductUID != "prod-2" {
		t.Fatalf("expected remote add call, got %+v", env.remote.added)
	}
	guestCart, err := env.guest.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(guestCart.Items) != 0 {
		t.Fatalf("authed add must not touch the guest store")
	}
}

func TestFacadeRefreshRequiresAuthentication(t *testing.T) {
	env := setupFacadeTest(t)
	_, envelope := doJSON(t, env.engine, http.MethodPost, "/api/cart/refresh", nil)
	if envelope.StatusCode != response.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", envelope)
	}
}

func TestFacadeLogoutResetsState(t *testing.T) {
	env := setupFacadeTest(t)
	authenticate(t, env.session)
	if err := env.store.Fetch(context.Background()); err != nil {
		t.Fatalf("seed fetch failed: %v", err)
	}

	_, envelope := doJSON(t, env.engine, http.MethodDelete, "/api/session", nil)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("logout failed: %+v", envelope)
	}
	data := envelope.Data.(map[string]interface{})
	if data["mode"] != constants.SessionModeGuest {
		t.Fatalf("expected guest mode after logout, got %v", data["mode"])
	}
	if env.session.Authenticated() {
		t.Fatalf("session must be cleared")
	}
	if len(env.store.Snapshot().Cart.Items) != 0 {
		t.Fatalf("store must be reset on logout")
	}
}
