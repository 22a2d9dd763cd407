package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/phongpt2005/my-task-manager-web/models"
	"github.com/phongpt2005/my-task-manager-web/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvitationHandler struct {
	Service *services.InvitationService
	Access  *services.AccessService
}

func NewInvitationHandler(service *services.InvitationService, access *services.AccessService) *InvitationHandler {
	return &InvitationHandler{Service: service, Access: access}
}

func (h *InvitationHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	projectID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return
	}

	if _, err := h.Access.Authorize(r.Context(), actor, projectID, models.CapInviteMember); err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}
	if payload.Role == "" {
		payload.Role = string(models.RoleMember)
	}

	invite, err := h.Service.Invite(r.Context(), actor, projectID, payload.Email, models.Role(payload.Role))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

func (h *InvitationHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	project, err := h.Service.Accept(r.Context(), payload.Token, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *InvitationHandler) MyInvites(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	invites, err := h.Service.MyInvites(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invites)
}

func (h *InvitationHandler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	projectID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return
	}
	inviteID, err := primitive.ObjectIDFromHex(vars["inviteId"])
	if err != nil {
		http.Error(w, "Invalid invitation ID", http.StatusBadRequest)
		return
	}

	if _, err := h.Access.Authorize(r.Context(), actor, projectID, models.CapInviteMember); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Service.Cancel(r.Context(), inviteID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "invitation cancelled"})
}
