package control

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The key doubles as the English text.
const (
	msgStarted            = "Stream started successfully"
	msgStopped            = "Stream stopped successfully"
	msgAlreadyActive      = "Stream is already active"
	msgNotActive          = "Stream is not active"
	msgStartFailed        = "Failed to start stream: %s"
	msgStopFailed         = "Failed to stop stream: %s"
	msgDestinationMissing = "Destination is required"
	msgBitrateInvalid     = "Bitrate must be greater than zero"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "pt-BR"

var supportedLocales = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
}

var translations = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		msgStarted:            "Stream iniciado com sucesso",
		msgStopped:            "Stream parado com sucesso",
		msgAlreadyActive:      "Stream já está ativo",
		msgNotActive:          "Stream não está ativo",
		msgStartFailed:        "Erro ao iniciar stream: %s",
		msgStopFailed:         "Erro ao parar stream: %s",
		msgDestinationMissing: "Destino é obrigatório",
		msgBitrateInvalid:     "Bitrate deve ser maior que zero",
	},
	language.English: {
		msgStarted:            msgStarted,
		msgStopped:            msgStopped,
		msgAlreadyActive:      msgAlreadyActive,
		msgNotActive:          msgNotActive,
		msgStartFailed:        msgStartFailed,
		msgStopFailed:         msgStopFailed,
		msgDestinationMissing: msgDestinationMissing,
		msgBitrateInvalid:     msgBitrateInvalid,
	},
}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.BrazilianPortuguese))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

var localeMatcher = language.NewMatcher(supportedLocales)

// MatchLocale resolves a BCP 47 locale string to the closest supported
// locale. Unparseable or unsupported input resolves to pt-BR.
func MatchLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return supportedLocales[0]
	}
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return supportedLocales[0]
	}
	return supportedLocales[index]
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messageCatalog))
}
