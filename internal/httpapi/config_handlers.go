package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/eventlog"
)

func (r *Router) handleGetCallStructure(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"structure": r.plan.Structure()})
}

// handleUpdateCallStructure replaces the call structure used by sessions
// started from now on. A running session keeps its copy.
func (r *Router) handleUpdateCallStructure(w http.ResponseWriter, req *http.Request) {
	raw, ok := r.readBody(w, req)
	if !ok {
		return
	}
	cs, err := callplan.ParseStructure(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.plan.ReplaceStructure(cs); err != nil {
		r.rejectConfig(w, req, "call structure", err)
		return
	}
	r.trail.Record("", eventlog.EventConfigUpdated, map[string]any{
		"config": "call_structure",
		"stages": len(cs),
		"items":  len(cs.Items()),
	})
	r.logger.Printf("config: call structure updated (%d stages)", len(cs))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "structure": r.plan.Structure()})
}

func (r *Router) handleGetClientCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fields": r.plan.Fields()})
}

func (r *Router) handleUpdateClientCard(w http.ResponseWriter, req *http.Request) {
	raw, ok := r.readBody(w, req)
	if !ok {
		return
	}
	fields, err := callplan.ParseFields(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.plan.ReplaceFields(fields); err != nil {
		r.rejectConfig(w, req, "client card", err)
		return
	}
	r.trail.Record("", eventlog.EventConfigUpdated, map[string]any{
		"config": "client_card",
		"fields": len(fields),
	})
	r.logger.Printf("config: client card updated (%d fields)", len(fields))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "fields": r.plan.Fields()})
}

func (r *Router) readBody(w http.ResponseWriter, req *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return nil, false
	}
	return raw, true
}

func (r *Router) rejectConfig(w http.ResponseWriter, req *http.Request, what string, err error) {
	var ve *callplan.ValidationError
	if errors.As(err, &ve) {
		r.logger.Printf("config: %s rejected: %v", what, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Reason, "field": ve.Field})
		return
	}
	r.logger.Printf("config: %s update failed: %v", what, err)
	captureError(req, err, "config: update failed")
	writeError(w, http.StatusInternalServerError, "could not update configuration")
}
