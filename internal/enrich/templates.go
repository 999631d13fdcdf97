package enrich

import "strings"

// DetectLang guesses the reply language from the message script:
// Ukrainian-specific letters win over generic Cyrillic, anything else
// gets German. The guess only selects a reply template, so a miss is
// harmless.
func DetectLang(text string) string {
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, "іїєґ") {
		return "uk"
	}
	for _, r := range lower {
		if r >= 'а' && r <= 'я' || r == 'ё' {
			return "ru"
		}
	}
	return "de"
}

// Deterministic reply templates used when the provider is absent or
// returns an empty draft. An outbound action must never carry empty
// text.
var fallbackReplies = map[string]string{
	"ru": "Здравствуйте! Увидел ваше сообщение — могу помочь с юридическим вопросом, работаем с русскоязычными клиентами в Германии. Напишите, пожалуйста, подробнее.",
	"uk": "Вітаю! Побачив ваше повідомлення — можу допомогти з юридичним питанням, працюємо з україномовними клієнтами в Німеччині. Напишіть, будь ласка, детальніше.",
	"de": "Guten Tag! Ich habe Ihre Nachricht gesehen — wir unterstützen bei rechtlichen Fragen in Deutschland. Schreiben Sie mir gerne die Einzelheiten.",
}

var pitchReplies = map[string]string{
	"ru": "Здравствуйте! Мы — юридическая команда, помогаем с документами, судами и штрафами в Германии. Первая консультация бесплатная, отвечаем в течение дня. Расскажите о вашей ситуации?",
	"uk": "Вітаю! Ми — юридична команда, допомагаємо з документами, судами та штрафами в Німеччині. Перша консультація безкоштовна, відповідаємо протягом дня. Розкажіть про вашу ситуацію?",
	"de": "Guten Tag! Wir sind ein juristisches Team und unterstützen bei Dokumenten, Gerichtsverfahren und Bussgeldern in Deutschland. Die Erstberatung ist kostenlos. Erzählen Sie uns von Ihrem Anliegen?",
}

// FallbackReply returns the template reply for the detected language.
func FallbackReply(lang string) string {
	if r, ok := fallbackReplies[lang]; ok {
		return r
	}
	return fallbackReplies["ru"]
}

// PitchReply returns the pitch template for the detected language.
func PitchReply(lang string) string {
	if r, ok := pitchReplies[lang]; ok {
		return r
	}
	return pitchReplies["ru"]
}
