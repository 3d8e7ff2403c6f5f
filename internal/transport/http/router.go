package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/go-chat-api/internal/application/auth"
	"github.com/go-chat-api/internal/application/chat"
	"github.com/go-chat-api/internal/application/signal"
	"github.com/go-chat-api/internal/application/user"
	"github.com/go-chat-api/internal/config"
	"github.com/go-chat-api/internal/infrastructure/dynamo"
	s3infra "github.com/go-chat-api/internal/infrastructure/s3"
	"github.com/go-chat-api/internal/infrastructure/sns"
	"github.com/go-chat-api/internal/transport/http/handler"
	appmiddleware "github.com/go-chat-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	ChatRepo         *dynamo.ChatRepo
	MessageRepo      *dynamo.MessageRepo
	SignalRepo       *dynamo.SignalRepo
	S3Store          *s3infra.Store
	SMSSender        sns.SMSSender
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", appmiddleware.HeaderSessionToken},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"success":false,"error":"method not allowed"}`))
	})

	// 5 requests/second, burst of 10, applied to the public auth endpoint.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		SessionRepo:      deps.SessionRepo,
		SMSSender:        deps.SMSSender,
	})
	chatSvc := chat.NewService(chat.ServiceDeps{
		ChatRepo:    deps.ChatRepo,
		MessageRepo: deps.MessageRepo,
		UserRepo:    deps.UserRepo,
	})
	signalSvc := signal.NewService(signal.ServiceDeps{SignalRepo: deps.SignalRepo})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo, Avatars: avatarStore(deps.S3Store)})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	messageH := handler.NewMessageHandler(chatSvc)
	signalingH := handler.NewSignalingHandler(signalSvc)
	userH := handler.NewUserHandler(userSvc)

	sessionMw := appmiddleware.SessionAuth(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes (no session).
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth", authH.Action)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(sessionMw)

			r.Get("/auth", authH.Me)

			r.Get("/messages", messageH.List)
			r.Post("/messages", messageH.Action)

			r.Get("/signaling", signalingH.Poll)
			r.Post("/signaling", signalingH.Action)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/me", userH.UpdateMe)
			r.Post("/users/me/avatar", userH.UploadAvatar)
		})
	})

	return r
}

// avatarStore keeps the user service decoupled from a nil *Store: a typed nil
// pointer inside a non-nil interface would defeat its configured check.
func avatarStore(s *s3infra.Store) user.AvatarStore {
	if s == nil {
		return nil
	}
	return s
}
