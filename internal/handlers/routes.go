package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"student-connect/internal/database"
	"student-connect/internal/services"
	"student-connect/internal/utils"
)

// Deps are the collaborators of the stub API.
type Deps struct {
	DB           *database.Database
	JWT          *utils.JWTUtil
	Mailer       services.Mailer
	ResetLimiter *rate.Limiter
	PublicURL    string
	ResetBaseURL string
}

// NewRouter mounts the Student Connect REST API.
func NewRouter(d Deps) *mux.Router {
	limiter := d.ResetLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	limited := RateLimitMiddleware(limiter)

	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.HandleFunc("/uploads/{name}", ServeUpload(d.DB)).Methods("GET")

	authRouter := router.PathPrefix("/api/auth").Subrouter()
	{
		authRouter.HandleFunc("/login", Login(d.DB, d.JWT)).Methods("POST")
		authRouter.HandleFunc("/register", Register(d.DB, d.JWT)).Methods("POST")
		authRouter.HandleFunc("/forgot-password", limited(ForgotPassword(d.DB, d.JWT, d.Mailer, d.ResetBaseURL))).Methods("POST")
		authRouter.HandleFunc("/reset-password", limited(ResetPassword(d.DB, d.JWT))).Methods("POST")
	}

	// Public reads.
	router.HandleFunc("/api/posts", ListPosts(d.DB)).Methods("GET")
	router.HandleFunc("/api/posts/{id}", GetPost(d.DB)).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(JWTMiddleware(d.JWT))
	{
		apiRouter.HandleFunc("/user/profile", GetProfile(d.DB)).Methods("GET")
		apiRouter.HandleFunc("/user/profile", UpdateProfile(d.DB)).Methods("PUT")
		apiRouter.HandleFunc("/upload/profile-picture", UploadProfilePicture(d.DB, d.PublicURL)).Methods("POST")
		apiRouter.HandleFunc("/posts", CreatePost(d.DB, d.PublicURL)).Methods("POST")
		apiRouter.HandleFunc("/posts/{id}/comments", AddComment(d.DB)).Methods("POST")
	}

	router.HandleFunc("/api/user/{username}", GetUserByUsername(d.DB)).Methods("GET")

	return router
}
