package handlers

import (
	"context"
	"strings"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

const companyProfileQuery = "SELECT name, mailing_name, address, state, pincode, email, phone, gstin, books_from FROM company_profile LIMIT 1"

// CompanyHandler answers company-information and address questions from the
// single company-profile record.
type CompanyHandler struct {
	src    source.AccountingSource
	sync   SyncTimeProvider
	loc    *time.Location
	logger logger.Logger
}

func NewCompanyHandler(src source.AccountingSource, sync SyncTimeProvider, loc *time.Location, log logger.Logger) *CompanyHandler {
	return &CompanyHandler{src: src, sync: sync, loc: loc, logger: log}
}

func (h *CompanyHandler) Name() string { return "company-profile" }

func (h *CompanyHandler) Handle(ctx context.Context, req models.QueryRequest) (*Result, error) {
	res, err := h.src.ExecuteQuery(ctx, companyProfileQuery)
	if err != nil {
		return nil, err
	}
	if !res.Success || len(res.Rows) == 0 {
		return nil, source.ErrQueryFailed
	}

	row := res.Rows[0]
	profile := models.CompanyProfile{
		Name:        rowString(row, "name", "company_name"),
		MailingName: rowString(row, "mailing_name"),
		Address:     rowString(row, "address"),
		State:       rowString(row, "state"),
		Pincode:     rowString(row, "pincode"),
		Email:       rowString(row, "email"),
		Phone:       rowString(row, "phone", "mobile"),
		GSTIN:       rowString(row, "gstin"),
		BooksFrom:   rowString(row, "books_from"),
	}
	if profile.Name == "" {
		return nil, source.ErrQueryFailed
	}

	q := strings.ToLower(req.Text)
	var b strings.Builder
	if containsAny(q, "address", "pata", "located", "location") {
		b.WriteString(profile.Name + "\n")
		if profile.Address != "" {
			b.WriteString(profile.Address)
			if profile.State != "" {
				b.WriteString(", " + profile.State)
			}
			if profile.Pincode != "" {
				b.WriteString(" - " + profile.Pincode)
			}
			b.WriteString("\n")
		} else {
			b.WriteString("No address on record.\nAddress available nahi hai.\n")
		}
	} else {
		b.WriteString(profile.Name + "\n")
		if profile.GSTIN != "" {
			b.WriteString("GSTIN: " + profile.GSTIN + "\n")
		}
		if profile.Email != "" {
			b.WriteString("Email: " + profile.Email + "\n")
		}
		if profile.Phone != "" {
			b.WriteString("Phone: " + profile.Phone + "\n")
		}
		if profile.BooksFrom != "" {
			b.WriteString("Books from: " + profile.BooksFrom + "\n")
		}
		b.WriteString("Aapki company ki jaankari upar di gayi hai.")
	}

	return &Result{
		Success:   true,
		Data:      profile,
		HumanText: strings.TrimRight(b.String(), "\n") + syncStamp(ctx, h.sync, req.TenantID, h.loc),
	}, nil
}
