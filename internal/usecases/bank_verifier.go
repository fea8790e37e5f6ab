package usecases

import (
	"context"
	"fmt"
	"strings"

	"partner-portal.backend/internal/domain/entities"
	domainerrors "partner-portal.backend/internal/domain/errors"
	"partner-portal.backend/pkg/utils"
)

// HolderLookup asks the bank network who owns an account
type HolderLookup interface {
	LookupHolder(ctx context.Context, bankCode, accountNumber string) (string, error)
}

type bank struct {
	code    string
	name    string
	aliases []string
}

// banks maps display names and common aliases to the provider's 3-digit codes
var banks = []bank{
	{"004", "KB국민은행", []string{"kb국민", "국민", "kb", "kookmin"}},
	{"088", "신한은행", []string{"신한", "shinhan"}},
	{"020", "우리은행", []string{"우리", "woori"}},
	{"081", "하나은행", []string{"하나", "keb하나", "hana"}},
	{"011", "NH농협은행", []string{"nh농협", "농협", "nh", "nonghyup"}},
	{"003", "IBK기업은행", []string{"ibk기업", "기업", "ibk"}},
	{"090", "카카오뱅크", []string{"카카오뱅크", "카카오", "kakaobank"}},
	{"092", "토스뱅크", []string{"토스뱅크", "토스", "tossbank"}},
	{"089", "케이뱅크", []string{"케이뱅크", "kbank"}},
	{"023", "SC제일은행", []string{"sc제일", "제일", "sc"}},
	{"027", "한국씨티은행", []string{"한국씨티", "씨티", "citi"}},
	{"032", "부산은행", []string{"부산", "busan"}},
	{"031", "iM뱅크", []string{"im뱅크", "대구", "imbank", "daegu"}},
	{"034", "광주은행", []string{"광주", "kwangju"}},
	{"037", "전북은행", []string{"전북", "jeonbuk"}},
	{"039", "경남은행", []string{"경남", "kyongnam"}},
	{"035", "제주은행", []string{"제주", "jeju"}},
	{"007", "수협은행", []string{"수협", "sh수협", "suhyup"}},
	{"071", "우체국", []string{"우체국", "postoffice"}},
	{"045", "새마을금고", []string{"새마을금고", "새마을", "mg"}},
	{"048", "신협", []string{"신협", "cu"}},
	{"002", "KDB산업은행", []string{"kdb산업", "산업", "kdb"}},
}

var bankIndex = buildBankIndex()

func buildBankIndex() map[string]bank {
	idx := make(map[string]bank, len(banks)*4)
	for _, b := range banks {
		idx[b.code] = b
		idx[normalizeBankName(b.name)] = b
		for _, a := range b.aliases {
			idx[normalizeBankName(a)] = b
		}
	}
	return idx
}

func normalizeBankName(name string) string {
	n := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return strings.TrimSuffix(n, "은행")
}

// ResolveBank maps a human-readable bank name, alias or code to the bank code
// and display name.
func ResolveBank(name string) (code, displayName string, ok bool) {
	b, found := bankIndex[normalizeBankName(name)]
	if !found {
		return "", "", false
	}
	return b.code, b.name, true
}

// HolderMatches compares holder names ignoring whitespace and case
func HolderMatches(claimed, actual string) bool {
	c := utils.NormalizeHolderName(claimed)
	return c != "" && c == utils.NormalizeHolderName(actual)
}

// BankVerifier resolves and verifies payout accounts
type BankVerifier struct {
	lookup HolderLookup
}

// NewBankVerifier creates a new bank verifier
func NewBankVerifier(lookup HolderLookup) *BankVerifier {
	return &BankVerifier{lookup: lookup}
}

// VerifyAccount returns the holder on file for the account
func (v *BankVerifier) VerifyAccount(ctx context.Context, bankName, accountNumber string) (*entities.BankAccountHolder, error) {
	code, display, ok := ResolveBank(bankName)
	if !ok {
		return nil, fmt.Errorf("unsupported bank %q: %w", bankName, domainerrors.ErrValidation)
	}

	number, err := utils.NormalizeAccountNumber(accountNumber)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domainerrors.ErrValidation)
	}

	holder, err := v.lookup.LookupHolder(ctx, code, number)
	if err != nil {
		return nil, err
	}

	return &entities.BankAccountHolder{
		BankName:      display,
		BankCode:      code,
		AccountNumber: number,
		HolderName:    strings.TrimSpace(holder),
	}, nil
}
