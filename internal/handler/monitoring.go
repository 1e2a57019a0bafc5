package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/internal/service"
	"github.com/perpusku/library-engine/pkg/response"
	"github.com/perpusku/library-engine/pkg/utils"
)

type MonitoringHandler struct {
	service *service.MonitoringService
}

func NewMonitoringHandler(service *service.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{service: service}
}

// LibrarySummary handles GET /monitoring/summary
func (h *MonitoringHandler) LibrarySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.LibrarySummary(r.Context(), principalOrZero(r))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, summary)
}

// ClassSummary handles GET /monitoring/class/{kelas}
func (h *MonitoringHandler) ClassSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ClassSummary(r.Context(), principalOrZero(r), mux.Vars(r)["kelas"])
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *MonitoringHandler) reportFilter(r *http.Request) (domain.ReportFilter, error) {
	var filter domain.ReportFilter

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := utils.ParseDate(from)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := utils.ParseDate(to)
		if err != nil {
			return filter, err
		}
		end := utils.EndOfDay(t)
		filter.To = &end
	}

	return filter, nil
}

// LoanReport handles GET /reports/loans
func (h *MonitoringHandler) LoanReport(w http.ResponseWriter, r *http.Request) {
	filter, err := h.reportFilter(r)
	if err != nil {
		response.BadRequest(w, "from/to must be formatted as "+utils.DateLayout, err)
		return
	}

	rows, err := h.service.LoanReport(r.Context(), principalOrZero(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, rows)
}

// LoanReportCSV handles GET /reports/loans.csv
func (h *MonitoringHandler) LoanReportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := h.reportFilter(r)
	if err != nil {
		response.BadRequest(w, "from/to must be formatted as "+utils.DateLayout, err)
		return
	}

	rows, err := h.service.LoanReport(r.Context(), principalOrZero(r), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="loan_report.csv"`)

	writer := csv.NewWriter(w)
	defer writer.Flush()

	_ = writer.Write([]string{
		"loan_id", "book_title", "book_author", "member_name", "kelas",
		"borrow_date", "due_date", "return_date", "status", "penalty_book", "fine",
	})

	for _, row := range rows {
		returnDate := ""
		if row.ReturnDate != nil {
			returnDate = row.ReturnDate.Format(utils.DateLayout)
		}
		_ = writer.Write([]string{
			row.LoanID,
			row.BookTitle,
			row.BookAuthor,
			row.MemberName,
			row.MemberKelas,
			row.BorrowDate.Format(utils.DateLayout),
			row.DueDate.Format(utils.DateLayout),
			returnDate,
			row.DisplayStatus,
			row.PenaltyBook,
			strconv.FormatFloat(row.Fine.InexactFloat64(), 'f', 2, 64),
		})
	}
}
