package classifier

import "regexp"

// Scoring constants. Each additional pattern match beyond the first
// adds stepBonus points, capped at extraMatchCap extra matches, so
// multi-signal messages score higher without growing unbounded.
const (
	stepBonus        = 10
	extraMatchCap    = 3
	hardBlockScore   = 100
	leadQuestionBase = 40
	maxReasons       = 10
)

// categoryRule scores one positive category: base points for the first
// matching pattern plus the step bonus for additional matches.
type categoryRule struct {
	category Category
	tag      string
	base     int
	patterns []*regexp.Regexp
}

// negativeRule subtracts points from every accumulated category score
// when any of its patterns match. Typical signals are job ads and sale
// listings that reuse lead vocabulary.
type negativeRule struct {
	tag      string
	penalty  int
	patterns []*regexp.Regexp
}

// hardBlockRule short-circuits classification entirely: if any pattern
// matches, the message is that category at the fixed hard-block score
// and no other scoring runs.
type hardBlockRule struct {
	category Category
	tag      string
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// The rule table operates on normalized text: lowercased, punctuation
// replaced by single spaces, whitespace collapsed. Patterns therefore
// never rely on punctuation or letter case. Vocabulary covers Russian,
// Ukrainian and German, matching the monitored expat communities.
var hardBlocks = []hardBlockRule{
	{
		category: CategorySpam,
		tag:      "spam",
		patterns: compile(
			`\bcasino\b|казино`,
			`промокод`,
			`букмекер|ставк(и|ах) на спорт`,
			`бонус (за|при) (регистрац|депозит)|vip бонус|вип бонус`,
			`фриспин|бесплатн(ые|ых) вращени`,
			`крипт[ао].{0,30}(заработ|доход|инвест)`,
			`пассивн(ый|ий) (доход|дохід)`,
			`заработок (в интернете|на дому|онлайн)`,
			`схем[аы] заработка`,
		),
	},
	{
		category: CategoryOfftop,
		tag:      "offtop",
		patterns: compile(
			`знакомств|познакомлюсь|интим|эскорт`,
			`подпишись на (канал|наш)|подписывайтесь на канал`,
			`реклама (канала|в канале|в группе)`,
			`розыгрыш призов|голосуй за|проголосуйте за`,
		),
	},
}

var rules = []categoryRule{
	{
		category: CategoryPartnerServices,
		tag:      "partner_services",
		base:     50,
		patterns: compile(
			`(предлагаю|оказываю|надаю) послуги перекладач`,
			`(предлагаю|оказываю) услуги (перевод|присяжн)`,
			`(переводчик|перекладач) (с опытом|досвідчен|предлагает|пропонує)`,
			`(присяжный|присяжний) (переводчик|перекладач)`,
			`(бухгалтер|steuerberater|налоговый консультант) (услуг|послуг|предлага|пропону)`,
			`страхов(ой|ий) (агент|брокер|маклер)`,
			`помощь с (оформлением|заполнением) (документ|анкет|формуляр)`,
		),
	},
	{
		category: CategoryCompetitor,
		tag:      "competitor",
		base:     45,
		patterns: compile(
			`юридическ(ая|ие|ую) (помощь|услуг|консультац).{0,40}(оказыва|предлага|предоставля|запис)`,
			`(оказываю|предлагаю|предоставляю|надаю) юридическ`,
			`(адвокатское бюро|адвокатська контора|kanzlei) (приглашает|запрошує|предлагает)`,
			`запис(ь|аться) на (юридическую )?консультаци`,
			`(первая|перша) консультация бесплатно`,
			`наш(а)? (юрист|адвокат|канцелярия) (поможет|проконсультирует)`,
		),
	},
	{
		category: CategoryLeadSearch,
		tag:      "lead_search",
		base:     60,
		patterns: compile(
			`(ищу|шукаю) (адвокат|юрист|anwalt|анвальт)`,
			`(нужен|нужна|нужны|потрібен|потрібна|треба|нужен срочно) (адвокат|юрист|anwalt|анвальт)`,
			`(посоветуйте|порекомендуйте|порадьте|підкажіть|подскажите) (хорошего |доброго )?(адвокат|юрист|anwalt|анвальт)`,
			`(ищу|шукаю|нужен|треба) (rechtsanwalt|anwalt)`,
			`кто (может|знает) (посоветовать|порекомендовать) (адвокат|юрист)`,
			`(есть|є) (ли )?(у кого )?(контакт|номер) (адвокат|юрист)`,
		),
	},
}

// Question markers and topic patterns combine into CategoryLeadQuestion:
// a topic mention alone is not sufficient signal, and neither is a bare
// question. Both sets must fire.
var questionMarkers = compile(
	`подскажите|подскажет|посоветуйте|підкажіть|порадьте`,
	`кто (знает|сталкивался|делал)|хто (знає|стикався|робив)`,
	`что делать|що робити|как (быть|действовать|поступить|оформить)|як (бути|діяти|оформити)`,
	`можно ли|чи можна|можна чи`,
	`wie (kann|macht) man`,
)

var questionTopics = compile(
	`адвокат|юрист|anwalt|анвальт`,
	`суд(е|а|у)?\b|иск|позов`,
	`штраф|bussgeld`,
	`депортац|высылк`,
	`виз(а|у|ы)|віз(а|у|и)|aufenthalt|внж|пмж`,
	`гражданств|громадянств`,
	`развод|розлучен|алимент|алімент|наследств|спадщин`,
	`(трудов|робоч)(ой|ого|ий) (договор|контракт)|kundigung|увольнени|звільненн`,
	`страховк|страхуванн|versicherung`,
)

var negatives = []negativeRule{
	{
		tag:     "job_ad",
		penalty: 25,
		patterns: compile(
			`ваканси|вакансі`,
			`требу(е|ю)тся (на работу|сотрудник|работник|водител)`,
			`ищем (сотрудник|работник|водител|персонал)`,
			`на постоянную работу|полная занятость`,
			`зарплата (от|до) \d`,
		),
	},
	{
		tag:     "sale_ad",
		penalty: 25,
		patterns: compile(
			`продам|продается|продаються`,
			`сда(м|ется|ётся) (квартир|комнат|кімнат)`,
			`скидк(а|и) (на|до)|акция до конца`,
			`доставка (по|из) (германии|німеччини|украин|україн)`,
		),
	},
}
