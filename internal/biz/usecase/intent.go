package usecase

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
)

type intentRule struct {
	pattern *regexp.Regexp
	intent  domain.Intent
}

// Evaluated in order against normalized text, first match wins
var intentRules = []intentRule{
	{regexp.MustCompile(`ficha\s*(100|khumic|humic)`), domain.IntentKhumicSheet},
	{regexp.MustCompile(`ficha\s*(seaweed|800|algas)`), domain.IntentSeaweedSheet},
	{regexp.MustCompile(`^6$`), domain.IntentSheets},
	{regexp.MustCompile(`asesor|agente|humano|persona|hablar con|^5$`), domain.IntentHandoff},
	{regexp.MustCompile(`\b(hola|buenas|menu|inicio|hi)\b|^0$`), domain.IntentMenu},
	{regexp.MustCompile(`^1$`), domain.IntentProducts},
	{regexp.MustCompile(`^2$`), domain.IntentCatalogue},
	{regexp.MustCompile(`^3$`), domain.IntentPrices},
	{regexp.MustCompile(`^4$`), domain.IntentLocation},
}

// IntentUsecase maps customer text to an intent
type IntentUsecase struct {
	intentRepo repo.IntentRepo
}

// NewIntentUsecase creates a new intent usecase. intentRepo may be nil.
func NewIntentUsecase(intentRepo repo.IntentRepo) *IntentUsecase {
	return &IntentUsecase{intentRepo: intentRepo}
}

// Classify matches the keyword table, then asks the classifier if one is configured.
// On classifier failure the intent is IntentUnknown and the error is returned.
func (uc *IntentUsecase) Classify(ctx context.Context, text string) (domain.Intent, error) {
	if intent := MatchIntent(text); intent != domain.IntentUnknown {
		return intent, nil
	}
	if uc.intentRepo == nil {
		return domain.IntentUnknown, nil
	}

	wantsHuman, err := uc.intentRepo.WantsHuman(ctx, text)
	if err != nil {
		return domain.IntentUnknown, err
	}
	if wantsHuman {
		return domain.IntentHandoff, nil
	}
	return domain.IntentUnknown, nil
}

// IsClassifierEnabled returns whether a free-text classifier is configured
func (uc *IntentUsecase) IsClassifierEnabled() bool {
	return uc.intentRepo != nil
}

// MatchIntent runs the keyword table only
func MatchIntent(text string) domain.Intent {
	t := NormalizeText(text)
	if t == "" {
		return domain.IntentUnknown
	}
	for _, rule := range intentRules {
		if rule.pattern.MatchString(t) {
			return rule.intent
		}
	}
	return domain.IntentUnknown
}

// NormalizeText lowercases, strips diacritics and trims
func NormalizeText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		out = strings.ToLower(text)
	}
	return strings.TrimSpace(out)
}
