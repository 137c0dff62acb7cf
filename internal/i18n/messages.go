// Package i18n negotiates the session locale and looks up localised
// user-facing messages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	RegisterErrorGlobal               = "register.error.global"
	RegisterErrorPasswordConfirmation = "register.error.password.confirmation.error"
	RegisterErrorAccount              = "register.error.global.account"
	AccountErrorGlobal                = "account.error.global"
	AccountPasswordConfirmationError  = "account.password.confirmation.error"
	AccountPasswordError              = "account.password.error"
	AccountEmailAlreadyUsed           = "account.email.alreadyUsed"
	LoginError                        = "login.error"
)

// DefaultLocale is used when nothing else can be negotiated.
var DefaultLocale = language.English

var supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.English: {
		RegisterErrorGlobal:               "Please check the highlighted fields and try again.",
		RegisterErrorPasswordConfirmation: "Password and confirmation password do not match.",
		RegisterErrorAccount:              "An account already exists for %s.",
		AccountErrorGlobal:                "Please check the highlighted fields and try again.",
		AccountPasswordConfirmationError:  "New password and confirmation password do not match.",
		AccountPasswordError:              "The current password is incorrect.",
		AccountEmailAlreadyUsed:           "The email %s is already used by another account.",
		LoginError:                        "Invalid email or password.",
	},
	language.French: {
		RegisterErrorGlobal:               "Veuillez vérifier les champs indiqués et réessayer.",
		RegisterErrorPasswordConfirmation: "Le mot de passe et sa confirmation ne correspondent pas.",
		RegisterErrorAccount:              "Un compte existe déjà pour %s.",
		AccountErrorGlobal:                "Veuillez vérifier les champs indiqués et réessayer.",
		AccountPasswordConfirmationError:  "Le nouveau mot de passe et sa confirmation ne correspondent pas.",
		AccountPasswordError:              "Le mot de passe actuel est incorrect.",
		AccountEmailAlreadyUsed:           "L'adresse %s est déjà utilisée par un autre compte.",
		LoginError:                        "Adresse email ou mot de passe invalide.",
	},
}

// Messages resolves message keys against a catalog of supported locales.
type Messages struct {
	catalog *catalog.Builder
}

// NewMessages builds the message catalog.
func NewMessages() (*Messages, error) {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLocale))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return &Messages{catalog: b}, nil
}

// Get formats the message for key in the given locale. Unknown keys are
// returned verbatim.
func (m *Messages) Get(tag language.Tag, key string, args ...any) string {
	if _, ok := translations[DefaultLocale][key]; !ok {
		return key
	}
	p := message.NewPrinter(Match(tag), message.Catalog(m.catalog))
	return p.Sprintf(key, args...)
}

// Negotiate picks the best supported locale for an Accept-Language header.
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	return Match(tags...)
}

// Match maps arbitrary tags onto the closest supported locale.
func Match(tags ...language.Tag) language.Tag {
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return supported[idx]
}

// Parse parses a stored locale string, falling back to DefaultLocale.
func Parse(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLocale
	}
	return Match(tag)
}
