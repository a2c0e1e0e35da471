package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamari/service/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		HTTP:  config.HTTP{Host: "127.0.0.1", Port: 0, ShutdownTimeout: 1},
		Store: config.Store{Driver: config.StoreMemory},
		JWT:   config.JWT{Secret: "secret", Expired: 168},
		Mail: config.Mail{
			Mode:     config.MailDirect,
			Endpoint: "http://127.0.0.1:1",
			From:     "from@x.com",
			AppURL:   "https://app.example.com",
			Timeout:  1,
		},
		Objectiveed: config.Objectiveed{BaseURL: "http://127.0.0.1:1", Timeout: 1},
	}
}

func TestNewApp_Validation(t *testing.T) {
	cfg := memoryConfig()
	cfg.JWT.Secret = ""
	_, err := NewApp(cfg)
	assert.Error(t, err)
}

func TestNewApp_SignupFlow(t *testing.T) {
	a, err := NewApp(memoryConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(
		`{"email":"a@x.com","password":"p","organization":"Acme","type":"client","first_name":"A","last_name":"B"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Server().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	a.Server().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_provision_total")

	// the welcome mail fails against the closed port and must not block shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, a.Shutdown(ctx))
}
