package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qmva/internal/store"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// exportTables lists the tables offered for download.
var exportTables = []string{store.TableRecords, store.TableConfirmations, store.TableRoster}

// page is the data every template receives.
type page struct {
	Data       any
	CSRFToken  string
	Authorized bool
	Error      string
	Notice     string
}

type indexData struct {
	Query   string
	Rows    []indexRow
	Record  types.ProcedureRecord
	Exports []string
}

type indexRow struct {
	Record   types.ProcedureRecord
	Progress types.Progress
}

type recordData struct {
	Record   types.ProcedureRecord
	Progress types.Progress
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	p.CSRFToken = csrfTokenFrom(r.Context())
	p.Authorized = sessionFrom(r.Context()).Authorized
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		s.log.Error("executing template", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail renders err as a user-facing message. Nothing is retried.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := describe(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.render(w, r, status, pageError, page{Error: msg})
}

// describe maps an operation error to a status code and a German message.
func describe(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusForbidden, "Keine Berechtigung für diese Aktion."
	case errors.Is(err, types.ErrInvalidID):
		return http.StatusBadRequest, "Ungültige VA-Nummer."
	case errors.Is(err, types.ErrInvalidName):
		return http.StatusBadRequest, "Bitte einen Namen angeben."
	case errors.Is(err, types.ErrInvalidData):
		return http.StatusBadRequest, "Ungültige Daten: " + err.Error()
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, "Verfahrensanweisung nicht gefunden."
	case errors.Is(err, types.ErrAlreadyConfirmed):
		return http.StatusConflict, "Die Lesebestätigung liegt bereits vor."
	case errors.Is(err, types.ErrUnknownTable):
		return http.StatusNotFound, "Unbekannte Tabelle."
	case errors.Is(err, types.ErrRenderFailed):
		return http.StatusInternalServerError, "Das PDF konnte nicht erstellt werden."
	default:
		return http.StatusInternalServerError, "Interner Fehler. Bitte erneut versuchen."
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLogin, page{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Check(r.FormValue("password")) {
		s.log.Warn("login failed", zap.String("remote", r.RemoteAddr))
		s.render(w, r, http.StatusUnauthorized, pageLogin, page{Error: "Falsches Passwort."})
		return
	}
	sess := s.sessions.Create(true)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("login", zap.String("session", sess.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(sessionFrom(r.Context()).ID)
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	ix, err := s.svc.Snapshot(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer ix.Close()
	recs, err := ix.Search(ctx, query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	overview, err := ix.Overview(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	byID := make(map[string]types.Progress, len(overview))
	for _, p := range overview {
		byID[p.ProcedureID] = p
	}
	data := indexData{Query: query, Exports: exportTables}
	for _, rec := range recs {
		p, ok := byID[rec.ID]
		if !ok {
			p = types.Progress{ProcedureID: rec.ID}
		}
		data.Rows = append(data.Rows, indexRow{Record: rec, Progress: p})
	}
	s.render(w, r, http.StatusOK, pageIndex, page{Data: data, Notice: r.URL.Query().Get("notice")})
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	s.showRecord(w, r, http.StatusOK, chi.URLParam(r, "id"), page{Notice: r.URL.Query().Get("notice")})
}

func (s *Server) showRecord(w http.ResponseWriter, r *http.Request, status int, id string, p page) {
	ctx := r.Context()
	rec, err := s.svc.Record(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	prog, err := s.svc.Progress(ctx, rec.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p.Data = recordData{Record: rec, Progress: prog}
	s.render(w, r, status, pageRecord, p)
}

func recordFromForm(r *http.Request) types.ProcedureRecord {
	return types.ProcedureRecord{
		ID:         r.FormValue("va_nr"),
		Title:      r.FormValue("titel"),
		Chapter:    r.FormValue("kapitel"),
		SubChapter: r.FormValue("unterkapitel"),
		Revision:   r.FormValue("revisionsstand"),
		Purpose:    r.FormValue("ziel"),
		Scope:      r.FormValue("geltungsbereich"),
		Procedure:  r.FormValue("vorgehensweise"),
		Comment:    r.FormValue("kommentar"),
		References: r.FormValue("unterlagen"),
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	rec, created, err := s.svc.SaveRecord(r.Context(), sessionFrom(r.Context()), recordFromForm(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	notice := "Gespeichert."
	if created {
		notice = "Angelegt."
	}
	redirectNotice(w, r, "/va/"+url.PathEscape(rec.ID), notice)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.DeleteRecord(r.Context(), sessionFrom(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	redirectNotice(w, r, "/", types.NormalizeID(id)+" gelöscht.")
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := types.NormalizeID(chi.URLParam(r, "id"))
	doc, err := s.svc.RenderDocument(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	_, _ = w.Write(doc)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	entry, err := s.svc.Confirm(ctx, sessionFrom(ctx), r.FormValue("name"), id)
	if errors.Is(err, types.ErrAlreadyConfirmed) || errors.Is(err, types.ErrInvalidName) {
		status, msg := describe(err)
		s.showRecord(w, r, status, id, page{Error: msg})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	redirectNotice(w, r, "/va/"+url.PathEscape(entry.ProcedureID), "Lesebestätigung für "+entry.Person+" gespeichert.")
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("roster")
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: keine Datei", types.ErrInvalidData))
		return
	}
	defer file.Close()

	n, warnings, err := s.svc.ImportRoster(r.Context(), sessionFrom(r.Context()), file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	notice := fmt.Sprintf("Mitarbeiterliste mit %d Einträgen übernommen.", n)
	if len(warnings) > 0 {
		notice += fmt.Sprintf(" %d Warnungen beim Einlesen.", len(warnings))
	}
	redirectNotice(w, r, "/", notice)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), table, &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table+".csv"))
	_, _ = buf.WriteTo(w)
}

func redirectNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	http.Redirect(w, r, path+"?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}
