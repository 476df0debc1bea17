package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/interfaces/http/dto"
	"github.com/erp/channelsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type stubChannels struct {
	byID map[uuid.UUID]*channel.Channel
}

func (s *stubChannels) FindByID(_ context.Context, id uuid.UUID) (*channel.Channel, error) {
	if ch, ok := s.byID[id]; ok {
		return ch, nil
	}
	return nil, channel.ErrChannelNotFound
}

func newMagentoChannel(t *testing.T) (*stubChannels, *channel.Channel) {
	t.Helper()
	ch, err := channel.NewMagentoChannel("Main store", channel.MagentoSettings{
		URL:     "https://shop.example.com",
		APIUser: "api",
		APIKey:  "secret",
	})
	require.NoError(t, err)
	return &stubChannels{byID: map[uuid.UUID]*channel.Channel{ch.ID: ch}}, ch
}

type stubSyncService struct {
	runFn        func(ctx context.Context, ch *channel.Channel, op integration.Operation) (*integration.SyncResult, error)
	importFn     func(ctx context.Context, ch *channel.Channel, sku string) (*catalog.Product, error)
	connectionFn func(ctx context.Context, ch *channel.Channel) error

	lastOp  integration.Operation
	lastSKU string
}

func (s *stubSyncService) Run(ctx context.Context, ch *channel.Channel, op integration.Operation) (*integration.SyncResult, error) {
	s.lastOp = op
	if s.runFn != nil {
		return s.runFn(ctx, ch, op)
	}
	return integration.NewSyncResult(op, ch.ID).Finish(), nil
}

func (s *stubSyncService) ImportProduct(ctx context.Context, ch *channel.Channel, sku string) (*catalog.Product, error) {
	s.lastSKU = sku
	if s.importFn != nil {
		return s.importFn(ctx, ch, sku)
	}
	return catalog.NewProduct(sku, "Imported "+sku)
}

func (s *stubSyncService) TestConnection(ctx context.Context, ch *channel.Channel) error {
	if s.connectionFn != nil {
		return s.connectionFn(ctx, ch)
	}
	return nil
}

func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func doRequest(r http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}
