package http

import (
	"net/http"
	"strconv"
	"time"

	"milkbook/internal/core"
	"milkbook/internal/storage"
)

func (s *Server) handleListDeletedRecords(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	records, err := s.ledger.ListDeletedRecords(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type deletedRecordResponse struct {
		ID             string    `json:"id"`
		TableName      string    `json:"table_name"`
		RecordID       string    `json:"record_id"`
		RecordData     string    `json:"record_data"`
		DeletionReason string    `json:"deletion_reason"`
		DeletedBy      string    `json:"deleted_by"`
		DeletedAt      time.Time `json:"deleted_at"`
	}
	out := make([]deletedRecordResponse, 0, len(records))
	for _, d := range records {
		out = append(out, deletedRecordResponse{
			ID:             d.ID,
			TableName:      d.TableName,
			RecordID:       d.RecordID,
			RecordData:     d.RecordData,
			DeletionReason: d.DeletionReason,
			DeletedBy:      d.DeletedBy,
			DeletedAt:      d.DeletedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.ledger.ListSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	type settingResponse struct {
		Key         string    `json:"key"`
		Value       string    `json:"value"`
		Description string    `json:"description"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
	out := make([]settingResponse, 0, len(settings))
	for _, setting := range settings {
		out = append(out, settingResponse{
			Key:         setting.Key,
			Value:       setting.Value,
			Description: setting.Description,
			UpdatedAt:   setting.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := s.ledger.PutSetting(r.Context(), storage.Setting{
		Key:         r.PathValue("key"),
		Value:       sanitizeInput(req.Value),
		Description: sanitizeInput(req.Description),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	audience := core.AccountKind(r.URL.Query().Get("audience"))

	templates, err := s.notifications.ListTemplates(r.Context(), audience)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type templateResponse struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Audience string `json:"audience"`
		Body     string `json:"body"`
	}
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateResponse{
			ID:       t.ID,
			Name:     t.Name,
			Audience: string(t.Audience),
			Body:     t.Body,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	template, err := s.notifications.SaveTemplate(r.Context(), storage.SMSTemplate{
		Name:     sanitizeInput(req.Name),
		Audience: core.AccountKind(req.Audience),
		Body:     req.Body,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": template.ID})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := s.notifications.Send(r.Context(), req.AccountID, req.TemplateID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     n.ID,
		"status": n.Status,
	})
}

func (s *Server) handleBroadcastSMS(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sent, err := s.notifications.Broadcast(r.Context(), core.AccountKind(req.Audience), req.TemplateID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": sent})
}
