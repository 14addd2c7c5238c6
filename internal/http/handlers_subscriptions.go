package http

import (
	"net/http"
	"time"

	"subtrack/internal/core"
)

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	opts, err := ParseListOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, "list_subscriptions", err)
		return
	}
	page, err := s.subs.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, "list_subscriptions", err)
		return
	}
	NewJSONResponse().Data(nonNil(page.Items)).Pagination(page.Pagination).Write(w)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, "get_subscription", err)
		return
	}
	NewJSONResponse().Data(sub).Write(w)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.Subscription
	if err := DecodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, "create_subscription", err)
		return
	}
	sub, err := s.subs.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create_subscription", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).
		Header("Location", "/api/subscriptions/"+sub.ID).
		Data(sub).Write(w)
}

// handleUpdateSubscription replaces the stored subscription with the body.
func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var in core.Subscription
	if err := DecodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, "update_subscription", err)
		return
	}
	sub, err := s.subs.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, "update_subscription", err)
		return
	}
	NewJSONResponse().Data(sub).Write(w)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, "delete_subscription", err)
		return
	}
	NewJSONResponse().Message("Subscription deleted successfully").Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.subs.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, "list_categories", err)
		return
	}
	NewJSONResponse().Data(nonNil(cats)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.Category
	if err := DecodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, "create_category", err)
		return
	}
	cat, err := s.subs.CreateCategory(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "create_category", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(cat).Write(w)
}

// handleInit seeds the default categories on an empty store.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	cats, seeded, err := s.subs.Initialize(r.Context())
	if err != nil {
		s.writeError(w, r, "init", err)
		return
	}
	msg := "Database already initialized"
	if seeded {
		msg = "Database initialized with default categories"
	}
	NewJSONResponse().Message(msg).Data(map[string]any{"categories": nonNil(cats)}).Write(w)
}

// handleData returns one page of subscriptions together with every category.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	opts, err := ParseListOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, "data", err)
		return
	}
	page, err := s.subs.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, "data", err)
		return
	}
	cats, err := s.subs.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, "data", err)
		return
	}

	NewJSONResponse().
		Data(map[string]any{
			"subscriptions": nonNil(page.Items),
			"categories":    nonNil(cats),
		}).
		Pagination(page.Pagination).
		Meta("timestamp", time.Now().UTC().Format(time.RFC3339)).
		Meta("subscriptionsCount", len(page.Items)).
		Meta("categoriesCount", len(cats)).
		Write(w)
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

