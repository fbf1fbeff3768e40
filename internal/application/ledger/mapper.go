package ledger

import (
	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/internal/domain/entity"
)

func toLedgerResponse(l *entity.PartyLedger, withTransactions bool) dto.PartyLedgerResponse {
	out := dto.PartyLedgerResponse{
		ID:                  l.ID,
		BusinessID:          l.BusinessID,
		PartyID:             l.PartyID,
		PartyName:           l.PartyName,
		PartyType:           string(l.PartyType),
		OpeningBalance:      l.OpeningBalance,
		OpeningBalanceType:  string(l.OpeningBalanceType),
		CreditLimit:         l.CreditLimit,
		CreditDays:          l.CreditDays,
		CurrentBalance:      l.CurrentBalance,
		CurrentBalanceType:  string(l.CurrentBalanceType),
		CreditLimitExceeded: l.CreditLimitExceeded(),
		LastTransactionDate: l.LastTransactionDate,
		Status:              string(l.Status),
		Version:             l.Version,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
	if withTransactions {
		out.Transactions = toTransactionResponses(l.Transactions)
	}
	return out
}

func toTransactionResponses(list []entity.LedgerTransaction) []dto.LedgerTransactionResponse {
	out := make([]dto.LedgerTransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toTransactionResponse(t entity.LedgerTransaction) dto.LedgerTransactionResponse {
	return dto.LedgerTransactionResponse{
		ID:              t.ID,
		Seq:             t.Seq,
		Date:            t.Date,
		Type:            string(t.Type),
		ReferenceType:   string(t.ReferenceType),
		ReferenceID:     t.ReferenceID,
		ReferenceNumber: t.ReferenceNumber,
		Description:     t.Description,
		Debit:           t.Debit,
		Credit:          t.Credit,
		Balance:         t.Balance,
		BalanceType:     string(t.BalanceType),
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}
