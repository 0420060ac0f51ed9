package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/prestamos-api/internal/domain/entity"
	"github.com/jhoicas/prestamos-api/internal/domain/loan"
)

// wireTime fecha del backend: RFC3339, fecha-hora local sin zona o solo fecha.
type wireTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" || string(b) == `""` {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fecha inválida %s: %w", b, err)
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("fecha con formato desconocido: %q", s)
}

func (t wireTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// ── Préstamos ─────────────────────────────────────────────────────────────────

type wireLoanDetail struct {
	ID                 int64   `json:"id"`
	LoanID             int64   `json:"loanId"`
	ItemID             int64   `json:"itemId"`
	ExitConditionID    int64   `json:"exitConditionId"`
	ExitObservations   string  `json:"exitObservations"`
	ReturnConditionID  *int64  `json:"returnConditionId"`
	ReturnObservations *string `json:"returnObservations"`
	Quantity           int     `json:"quantity"`
}

type wireLoan struct {
	ID                     int64            `json:"id"`
	Code                   string           `json:"code"`
	RequestDate            wireTime         `json:"requestDate"`
	ApprovalDate           wireTime         `json:"approvalDate"`
	DeliveryDate           wireTime         `json:"deliveryDate"`
	ScheduledReturnDate    wireTime         `json:"scheduledReturnDate"`
	ActualReturnDate       wireTime         `json:"actualReturnDate"`
	Status                 string           `json:"status"`
	RequestorID            int64            `json:"requestorId"`
	ApproverID             *int64           `json:"approverId"`
	Reason                 string           `json:"reason"`
	AssociatedEvent        string           `json:"associatedEvent"`
	ExternalLocation       string           `json:"externalLocation"`
	Notes                  string           `json:"notes"`
	ReminderSent           bool             `json:"reminderSent"`
	ResponsibilityDocument bool             `json:"responsibilityDocument"`
	LoanDetails            []wireLoanDetail `json:"loanDetails"`
}

func (w wireLoan) toEntity() entity.Loan {
	l := entity.Loan{
		ID:                     w.ID,
		Code:                   w.Code,
		RequestDate:            w.RequestDate.Time,
		ApprovalDate:           w.ApprovalDate.ptr(),
		DeliveryDate:           w.DeliveryDate.ptr(),
		ScheduledReturnDate:    w.ScheduledReturnDate.Time,
		ActualReturnDate:       w.ActualReturnDate.ptr(),
		Status:                 entity.LoanStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
		RequestorID:            w.RequestorID,
		ApproverID:             w.ApproverID,
		Reason:                 w.Reason,
		AssociatedEvent:        w.AssociatedEvent,
		ExternalLocation:       w.ExternalLocation,
		Notes:                  w.Notes,
		ReminderSent:           w.ReminderSent,
		ResponsibilityDocument: w.ResponsibilityDocument,
	}
	for _, d := range w.LoanDetails {
		loanID := d.LoanID
		if loanID == 0 {
			loanID = w.ID
		}
		l.Details = append(l.Details, entity.LoanDetail{
			ID:                 d.ID,
			LoanID:             loanID,
			ItemID:             d.ItemID,
			ExitConditionID:    d.ExitConditionID,
			ExitObservations:   d.ExitObservations,
			ReturnConditionID:  d.ReturnConditionID,
			ReturnObservations: d.ReturnObservations,
			Quantity:           d.Quantity,
		})
	}
	return l
}

// wireLoanPage el listado llega como arreglo plano o como página ({records, total, limit, page, pages}).
type wireLoanPage struct {
	Loans []wireLoan
	Total int
	Pages int
}

func (p *wireLoanPage) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &p.Loans); err != nil {
			return err
		}
		p.Total = len(p.Loans)
		return nil
	}
	var obj struct {
		Records       []wireLoan `json:"records"`
		Items         []wireLoan `json:"items"`
		Content       []wireLoan `json:"content"`
		Total         *int       `json:"total"`
		TotalElements *int       `json:"totalElements"`
		TotalPages    *int       `json:"totalPages"`
		Pages         *int       `json:"pages"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case obj.Records != nil:
		p.Loans = obj.Records
	case obj.Items != nil:
		p.Loans = obj.Items
	default:
		p.Loans = obj.Content
	}
	switch {
	case obj.Total != nil:
		p.Total = *obj.Total
	case obj.TotalElements != nil:
		p.Total = *obj.TotalElements
	default:
		p.Total = len(p.Loans)
	}
	switch {
	case obj.TotalPages != nil:
		p.Pages = *obj.TotalPages
	case obj.Pages != nil:
		p.Pages = *obj.Pages
	}
	return nil
}

type wireDetailRequest struct {
	ItemID           int64  `json:"itemId"`
	ExitConditionID  int64  `json:"exitConditionId"`
	ExitObservations string `json:"exitObservations"`
	Quantity         int    `json:"quantity"`
}

type wireCreateRequest struct {
	ScheduledReturnDate string              `json:"scheduledReturnDate"`
	RequestorID         int64               `json:"requestorId"`
	Reason              string              `json:"reason"`
	AssociatedEvent     string              `json:"associatedEvent,omitempty"`
	ExternalLocation    string              `json:"externalLocation,omitempty"`
	Notes               string              `json:"notes,omitempty"`
	LoanDetails         []wireDetailRequest `json:"loanDetails"`
	BlockBlackListed    bool                `json:"blockBlackListed"`
}

func toWireCreate(req loan.CreateRequest) wireCreateRequest {
	w := wireCreateRequest{
		ScheduledReturnDate: req.ScheduledReturnDate.Format(time.RFC3339),
		RequestorID:         req.RequestorID,
		Reason:              req.Reason,
		AssociatedEvent:     req.AssociatedEvent,
		ExternalLocation:    req.ExternalLocation,
		Notes:               req.Notes,
		LoanDetails:         make([]wireDetailRequest, 0, len(req.Details)),
		BlockBlackListed:    req.BlockBlacklisted,
	}
	for _, d := range req.Details {
		w.LoanDetails = append(w.LoanDetails, wireDetailRequest(d))
	}
	return w
}

type wireReturnedItem struct {
	LoanDetailID       int64  `json:"loanDetailId"`
	ReturnConditionID  int64  `json:"returnConditionId"`
	ReturnObservations string `json:"returnObservations"`
	Quantity           int    `json:"quantity"`
}

type wireReturnRequest struct {
	LoanID           int64              `json:"loanId"`
	ActualReturnDate string             `json:"actualReturnDate"`
	ReturnedItems    []wireReturnedItem `json:"returnedItems"`
	Notes            string             `json:"notes,omitempty"`
}

func toWireReturn(req loan.ReturnRequest) wireReturnRequest {
	w := wireReturnRequest{
		LoanID:           req.LoanID,
		ActualReturnDate: req.ActualReturnDate.Format(time.RFC3339),
		ReturnedItems:    make([]wireReturnedItem, 0, len(req.Items)),
		Notes:            req.Notes,
	}
	for _, it := range req.Items {
		w.ReturnedItems = append(w.ReturnedItems, wireReturnedItem(it))
	}
	return w
}

// ── Personas e inventario ─────────────────────────────────────────────────────

type wirePerson struct {
	ID        int64  `json:"id"`
	DNI       string `json:"dni"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"type"`
	Defaulter bool   `json:"defaulter"`
}

func (w wirePerson) toEntity() *entity.Person {
	p := entity.Person(w)
	p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
	return &p
}

type wireItem struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Stock            int             `json:"stock"`
	ConditionID      int64           `json:"conditionId"`
	AvailableForLoan bool            `json:"availableForLoan"`
	Value            decimal.Decimal `json:"value"`
}

func (w wireItem) toEntity() *entity.Item {
	it := entity.Item(w)
	return &it
}

type wireCondition struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
