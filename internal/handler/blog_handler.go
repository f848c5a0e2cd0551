package handler

import (
	"net/http"

	"bloglist-server/internal/domain"
	"bloglist-server/internal/middleware"
	"bloglist-server/internal/service"
	"bloglist-server/pkg/response"

	"github.com/gorilla/mux"
)

type BlogHandler struct {
	service *service.BlogService
}

func NewBlogHandler(service *service.BlogService) *BlogHandler {
	return &BlogHandler{
		service: service,
	}
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, blogs)
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	blog, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, blog)
}

// Create requires AuthMiddleware; the caller becomes the blog's author.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBlogRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, msgInvalidBody)
		return
	}

	blog, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Created(w, blog)
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateBlogRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, msgInvalidBody)
		return
	}

	blog, err := h.service.Update(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, blog)
}

func (h *BlogHandler) Like(w http.ResponseWriter, r *http.Request) {
	blog, err := h.service.Like(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, blog)
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetUserID(r), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.NoContent(w)
}
