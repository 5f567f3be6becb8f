package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"labelshop/internal/domain"
	authsvc "labelshop/internal/service/auth"
	ordersvc "labelshop/internal/service/order"
)

// AuthService is the subset of the auth service used by the handlers.
type AuthService interface {
	Register(ctx context.Context, in authsvc.RegisterInput) (*authsvc.Session, error)
	Login(ctx context.Context, identifier, password string) (*authsvc.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*authsvc.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	LookupByToken(ctx context.Context, accessToken string) (*domain.User, error)
}

type ProductService interface {
	List(ctx context.Context, kind string) ([]domain.Product, error)
	Get(ctx context.Context, idOrKey string) (*domain.Product, error)
}

type EventService interface {
	List(ctx context.Context, includePast bool) ([]domain.Event, error)
	Get(ctx context.Context, slug string) (*domain.Event, error)
}

type OrderService interface {
	PlaceCOD(ctx context.Context, userID *string, in ordersvc.CODInput) (*domain.Order, error)
	Get(ctx context.Context, viewer *domain.User, id string) (*domain.Order, error)
	Items(ctx context.Context, viewer *domain.User, id string) ([]domain.OrderLine, error)
	ListMine(ctx context.Context, viewer domain.User) ([]domain.Order, error)
}

// Deps bundles the services the router dispatches to.
type Deps struct {
	AuthSvc    AuthService
	ProductSvc ProductService
	EventSvc   EventService
	OrderSvc   OrderService
}

func (d Deps) validate() error {
	switch {
	case d.AuthSvc == nil:
		return errors.New("httpserver: auth service is required")
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service is required")
	case d.EventSvc == nil:
		return errors.New("httpserver: event service is required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(recovery(logger), requestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, opts: opts, logger: logger}
	api := router.Group("/api")
	api.Use(h.identify)

	auth := api.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", h.logout)
	auth.GET("/me", h.requireUser, h.me)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/events", h.listEvents)
	api.GET("/events/:slug", h.getEvent)

	api.POST("/orders/cod", h.optionalUser, h.placeCOD)
	api.GET("/orders", h.requireUser, h.myOrders)
	api.GET("/orders/:id", h.requireUser, h.getOrder)
	api.GET("/orders/:id/items", h.requireUser, h.orderItems)

	return router, nil
}

type handlers struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}
