package http

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/present"
)

// entryForm holds the submitted form values echoed back on a rejected post.
type entryForm struct {
	Label    string
	Amount   string
	Type     string
	Category string
}

// bar is one row of the expense breakdown on the page.
type bar struct {
	present.Slice
	Width int
	Class string
}

type pageData struct {
	Report         present.Report
	Bars           []bar
	Form           entryForm
	Error          string
	Currency       string
	ExpenseOptions []present.Option
	IncomeOptions  []present.Option
}

var templateFuncs = template.FuncMap{
	"isExpense": func(t string) bool { return t == core.Expense.String() },
}

// chartBars scales slices to the largest one. Non-empty bars keep a minimum
// width so small categories stay visible.
func chartBars(slices []present.Slice) []bar {
	maxVal := 0.0
	for _, sl := range slices {
		if sl.Value > maxVal {
			maxVal = sl.Value
		}
	}
	out := make([]bar, len(slices))
	for i, sl := range slices {
		w := 0
		if maxVal > 0 {
			w = int(sl.Value / maxVal * 100)
			if w < 2 && sl.Value > 0 {
				w = 2
			}
		}
		out[i] = bar{Slice: sl, Width: w, Class: "c" + strconv.Itoa(i%7)}
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, entryForm{Type: core.Expense.String()}, "")
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, form entryForm, errMsg string) {
	var rep present.Report
	err := s.withLedger(w, r, func(l *ledger.Ledger) error {
		rep = s.formatter.Build(l.List(), l.Summary())
		rep.Unsaved = l.Unsaved()
		return nil
	})
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	data := pageData{
		Report:         rep,
		Form:           form,
		Error:          errMsg,
		Currency:       s.formatter.Currency(),
		ExpenseOptions: present.CategoryOptions(core.Expense),
		IncomeOptions:  present.CategoryOptions(core.Income),
	}
	if !rep.Empty && len(rep.Chart) > 0 && rep.Chart[0].Label != present.NoExpensesLabel {
		data.Bars = chartBars(rep.Chart)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			log.NewFields().WithOperation(log.OpRender).WithError(err, log.ErrorTypeInternal).ToSlice()...)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	var resp listResponse
	err := s.withLedger(w, r, func(l *ledger.Ledger) error {
		entries := l.List()
		resp.Entries = make([]present.EntryRow, len(entries))
		for i, e := range entries {
			resp.Entries[i] = s.formatter.Row(e)
		}
		resp.Unsaved = l.Unsaved()
		return nil
	})
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	html := wantsHTML(r)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	form := entryForm{
		Label:    p.Get("label"),
		Amount:   p.Get("amount"),
		Type:     p.Get("type"),
		Category: p.Get("category"),
	}
	if form.Label == "" {
		form.Label = p.Get("text")
	}

	var created core.Entry
	err := s.withLedger(w, r, func(l *ledger.Ledger) error {
		var err error
		created, err = l.Add(r.Context(), form.Label, form.Amount, core.EntryType(form.Type), form.Category)
		return err
	})

	if html {
		if core.IsValidation(err) {
			s.renderPage(w, r, http.StatusUnprocessableEntity, form, err.Error())
			return
		}
		if err != nil && !core.IsPersistence(err) {
			writeLedgerError(w, r, err)
			return
		}
		// Unsaved state shows on the page itself.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, entryResponse{Entry: s.formatter.Row(created)})
	case core.IsPersistence(err):
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Entry added but not saved",
			log.NewFields().WithError(err, log.ErrorTypePersistence).ToSlice()...)
		writeJSON(w, http.StatusInternalServerError, entryResponse{
			Entry: s.formatter.Row(created), Unsaved: true, Error: err.Error(),
		})
	default:
		writeLedgerError(w, r, err)
	}
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var removed bool
	err = s.withLedger(w, r, func(l *ledger.Ledger) error {
		var err error
		removed, err = l.Remove(r.Context(), id)
		return err
	})

	if r.Method == http.MethodPost {
		if err != nil && !core.IsPersistence(err) {
			writeLedgerError(w, r, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, removeResponse{Removed: removed})
	case core.IsPersistence(err):
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Entry removed but not saved",
			log.NewFields().WithError(err, log.ErrorTypePersistence).ToSlice()...)
		writeJSON(w, http.StatusInternalServerError, removeResponse{Removed: removed, Unsaved: true, Error: err.Error()})
	default:
		writeLedgerError(w, r, err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var resp summaryResponse
	err := s.withLedger(w, r, func(l *ledger.Ledger) error {
		sum := l.Summary()
		resp = summaryResponse{
			Balance:   present.Fixed(sum.Balance),
			Income:    present.Fixed(sum.Income),
			Expense:   present.Fixed(sum.Expense),
			Currency:  s.formatter.Currency(),
			Count:     sum.Count,
			Breakdown: make([]categoryTotal, len(sum.Breakdown)),
			Display:   s.formatter.Build(l.List(), sum),
		}
		for i, ca := range sum.Breakdown {
			resp.Breakdown[i] = categoryTotal{
				Category: ca.Category.String(),
				Label:    present.Category(ca.Category).Label,
				Amount:   present.Fixed(ca.Amount),
				Display:  s.formatter.Format(ca.Amount),
			}
		}
		resp.Display.Unsaved = l.Unsaved()
		return nil
	})
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFlush retries the write of a ledger left unsaved by a failed save.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	err := s.withLedger(w, r, func(l *ledger.Ledger) error {
		return l.Flush(r.Context())
	})
	if wantsHTML(r) && (err == nil || core.IsPersistence(err)) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unsaved": false})
}
