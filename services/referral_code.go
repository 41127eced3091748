package services

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"referral-credit-system/models"
	"referral-credit-system/store"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	codePrefixLen   = 4
	codeSuffixRange = 1000
	fallbackPrefix  = "REF"
	MaxCodeAttempts = 10
)

// CodeGenerator derives shareable referral codes like "JANE042".
// The scheme alone does not guarantee uniqueness; Unique checks the store.
type CodeGenerator struct {
	intN  func(n int) int
	upper cases.Caser
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{intN: rand.IntN, upper: cases.Upper(language.Und)}
}

// Generate takes up to four letters of the transliterated name and a
// zero-padded three digit suffix.
func (g *CodeGenerator) Generate(displayName string) string {
	ascii := unidecode.Unidecode(displayName)
	var b strings.Builder
	for _, r := range ascii {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(r)
			if b.Len() == codePrefixLen {
				break
			}
		}
	}
	prefix := g.upper.String(b.String())
	if prefix == "" {
		prefix = fallbackPrefix
	}
	return fmt.Sprintf("%s%03d", prefix, g.intN(codeSuffixRange))
}

// Unique regenerates until the code is free inside tx.
func (g *CodeGenerator) Unique(tx *store.Tx, displayName string) (string, error) {
	for range MaxCodeAttempts {
		code := g.Generate(displayName)
		owner, err := tx.FindAccountByCode(code)
		if err != nil {
			return "", err
		}
		if owner == nil {
			return code, nil
		}
	}
	return "", models.ErrReferralCodeExhausted
}
