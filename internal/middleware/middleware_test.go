package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shophub/internal/model"
	"shophub/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyCatalog struct{}

func (emptyCatalog) Find(string) (model.Product, bool) { return model.Product{}, false }

func TestCORS(t *testing.T) {
	allowed := "http://localhost:3000"

	tests := []struct {
		name          string
		method        string
		origin        string
		preflight     bool
		expectHandler bool
		expectOrigin  string
	}{
		{
			name:          "Preflight from allowed origin",
			method:        http.MethodOptions,
			origin:        allowed,
			preflight:     true,
			expectHandler: false,
			expectOrigin:  allowed,
		},
		{
			name:          "GET from allowed origin",
			method:        http.MethodGet,
			origin:        allowed,
			expectHandler: true,
			expectOrigin:  allowed,
		},
		{
			name:          "GET from other origin",
			method:        http.MethodGet,
			origin:        "http://evil.test",
			expectHandler: true,
			expectOrigin:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := CORS([]string{allowed})(testHandler)

			req := httptest.NewRequest(tt.method, "/api/store/cart", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, tt.expectOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectOrigin != "" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	logger := zerolog.Nop()
	validAPIKey := "test-api-key-123"

	tests := []struct {
		name           string
		configuredKey  string
		apiKey         string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Valid API key",
			configuredKey:  validAPIKey,
			apiKey:         validAPIKey,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Invalid API key",
			configuredKey:  validAPIKey,
			apiKey:         "invalid-key",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Missing API key",
			configuredKey:  validAPIKey,
			apiKey:         "",
			expectedStatus: http.StatusUnauthorized,
			expectHandler:  false,
		},
		{
			name:           "Auth disabled",
			configuredKey:  "",
			apiKey:         "",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := APIKeyAuth(tt.configuredKey, logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			if tt.expectedStatus == http.StatusUnauthorized {
				var resp model.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, model.ErrCodeUnauthorised, resp.Error)
			}
		})
	}
}

func TestSession(t *testing.T) {
	manager := session.NewManager(emptyCatalog{}, time.Hour, zerolog.Nop())
	existing := manager.Create()

	tests := []struct {
		name      string
		cookie    string
		expectNew bool
	}{
		{name: "No cookie", cookie: "", expectNew: true},
		{name: "Known session", cookie: existing.ID.String(), expectNew: false},
		{name: "Expired session", cookie: "4b6e1e2a-0c2f-4d8e-9a57-0d3b8f0b7a11", expectNew: true},
		{name: "Garbage cookie", cookie: "garbage", expectNew: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *session.Session
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = session.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := Session(manager, time.Hour, zerolog.Nop())(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/store/cart", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			require.NotNil(t, got)
			if tt.expectNew {
				assert.NotEqual(t, existing.ID, got.ID)
			} else {
				assert.Same(t, existing, got)
			}

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, session.CookieName, cookies[0].Name)
			assert.Equal(t, got.ID.String(), cookies[0].Value)
			assert.True(t, cookies[0].HttpOnly)
			assert.Equal(t, 3600, cookies[0].MaxAge)
		})
	}
}

func TestSession_CookieExpirySlides(t *testing.T) {
	manager := session.NewManager(emptyCatalog{}, time.Hour, zerolog.Nop())
	handler := Session(manager, time.Hour, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/store/cart", nil))
	issued := first.Result().Cookies()
	require.Len(t, issued, 1)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/store/cart", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: issued[0].Value})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		renewed := w.Result().Cookies()
		require.Len(t, renewed, 1)
		assert.Equal(t, issued[0].Value, renewed[0].Value)
		assert.Equal(t, 3600, renewed[0].MaxAge)
	}
	assert.Equal(t, 1, manager.Len())
}

func TestLogging(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		method         string
		path           string
		handlerStatus  int
		expectedStatus int
	}{
		{
			name:           "Successful request",
			method:         http.MethodGet,
			path:           "/api/store/products",
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found request",
			method:         http.MethodGet,
			path:           "/api/unknown",
			handlerStatus:  http.StatusNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Bad gateway",
			method:         http.MethodPost,
			path:           "/api/admin/draft/submit",
			handlerStatus:  http.StatusBadGateway,
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			handler := Logging(logger)(testHandler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		shouldPanic    bool
		panicValue     interface{}
		expectedStatus int
	}{
		{
			name:           "No panic",
			shouldPanic:    false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Panic with string",
			shouldPanic:    true,
			panicValue:     "something went wrong",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Panic with error",
			shouldPanic:    true,
			panicValue:     assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.shouldPanic {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			})

			handler := Recovery(logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.shouldPanic {
				assert.Contains(t, w.Body.String(), "internal server error")
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusNotFound, http.StatusGatewayTimeout} {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		rw.WriteHeader(code)

		assert.Equal(t, code, rw.statusCode)
		assert.Equal(t, code, w.Code)
	}
}
