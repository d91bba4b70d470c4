package ref

import (
	"strconv"
	"strings"
	"unicode"
)

// shortForms maps lowercased unnumbered abbreviations to fuller book names.
var shortForms = map[string]string{
	// Ukrainian
	"бут": "Буття", "вих": "Вихід", "лев": "Левит", "чис": "Числа", "чисел": "Числа",
	"повт": "Повторення Закону", "втор": "Повторення Закону",
	"нав": "Ісус Навин", "суд": "Судді", "руф": "Рут",
	"езд": "Ездра", "неем": "Неемія", "ест": "Естер", "йов": "Йов",
	"пс": "Псалми", "псал": "Псалми", "прип": "Приповістки", "пр": "Приповістки",
	"екл": "Екклезіяст", "пісн": "Пісня над піснями",
	"іс": "Ісая", "іса": "Ісая", "єр": "Єремія", "єрем": "Єремія", "плач": "Плач Єремії",
	"єз": "Єзекіїль", "єзек": "Єзекіїль", "дан": "Даниїл",
	"ос": "Осія", "йоїл": "Йоіл", "ам": "Амос", "овд": "Овдій", "йон": "Йона",
	"мих": "Михей", "наум": "Наум", "ав": "Авакум", "соф": "Софонія",
	"ог": "Огій", "зах": "Захарія", "мал": "Малахія",
	"мт": "Від Матвія", "мф": "Від Матвія", "мтв": "Від Матвія",
	"мк": "Від Марка", "мр": "Від Марка", "лк": "Від Луки", "лук": "Від Луки",
	"ів": "Від Івана", "ін": "Від Івана",
	"дії": "Дії", "рим": "До Римлян", "гал": "До Галатів",
	"еф": "До Ефесян", "флп": "До Филип'ян", "фил": "До Филип'ян", "филп": "До Филип'ян",
	"кол": "До Колоссян", "тит": "До Тита", "флм": "До Филимона", "филим": "До Филимона",
	"євр": "До Євреїв", "як": "Якова", "юд": "Юди",
	"об": "Об'явлення", "одкр": "Об'явлення", "об'явл": "Об'явлення",

	// English
	"gen": "Genesis", "ge": "Genesis", "gn": "Genesis",
	"exod": "Exodus", "exo": "Exodus", "ex": "Exodus",
	"lev": "Leviticus", "lv": "Leviticus", "num": "Numbers", "nm": "Numbers",
	"deut": "Deuteronomy", "deu": "Deuteronomy", "dt": "Deuteronomy",
	"josh": "Joshua", "jos": "Joshua", "judg": "Judges", "jdg": "Judges", "rth": "Ruth",
	"ezr": "Ezra", "neh": "Nehemiah", "esth": "Esther", "est": "Esther",
	"ps": "Psalms", "psa": "Psalms", "psalm": "Psalms", "pss": "Psalms",
	"prov": "Proverbs", "pro": "Proverbs", "prv": "Proverbs",
	"eccl": "Ecclesiastes", "ecc": "Ecclesiastes", "qoh": "Ecclesiastes",
	"song": "Song of Solomon", "sos": "Song of Solomon", "canticles": "Song of Solomon",
	"isa": "Isaiah", "jer": "Jeremiah", "lam": "Lamentations",
	"ezek": "Ezekiel", "eze": "Ezekiel", "dan": "Daniel", "hos": "Hosea",
	"obad": "Obadiah", "oba": "Obadiah", "jon": "Jonah", "mic": "Micah", "nah": "Nahum",
	"hab": "Habakkuk", "zeph": "Zephaniah", "zep": "Zephaniah", "hag": "Haggai",
	"zech": "Zechariah", "zec": "Zechariah", "mal": "Malachi",
	"matt": "Matthew", "mat": "Matthew", "mt": "Matthew",
	"mrk": "Mark", "mk": "Mark", "luk": "Luke", "lk": "Luke",
	"joh": "John", "jn": "John", "jhn": "John",
	"act": "Acts", "rom": "Romans", "gal": "Galatians", "eph": "Ephesians",
	"phil": "Philippians", "php": "Philippians", "col": "Colossians",
	"tit": "Titus", "phlm": "Philemon", "phm": "Philemon",
	"heb": "Hebrews", "jas": "James", "jude": "Jude", "jud": "Jude",
	"rev": "Revelation", "rv": "Revelation", "apoc": "Revelation",
}

// numberedRoots maps lowercased roots of numbered books to the name that
// follows the Roman numeral.
var numberedRoots = map[string]string{
	// Ukrainian
	"сам": "Самуїлова", "см": "Самуїлова",
	"цар": "Царів", "цр": "Царів",
	"хр": "Хроніки", "хрон": "Хроніки", "пар": "Хроніки",
	"кор": "до Коринтян", "кр": "до Коринтян",
	"сол": "до Солунян", "сл": "до Солунян",
	"тим": "до Тимофія", "тм": "до Тимофія",
	"пет": "Петра", "пт": "Петра", "пе": "Петра",
	"ів": "Івана", "ін": "Івана",

	// English
	"sam": "Samuel", "sm": "Samuel", "sa": "Samuel",
	"kgs": "Kings", "ki": "Kings", "kin": "Kings", "kg": "Kings",
	"chr": "Chronicles", "ch": "Chronicles",
	"cor": "Corinthians", "co": "Corinthians",
	"thess": "Thessalonians", "th": "Thessalonians", "ths": "Thessalonians",
	"tim": "Timothy", "ti": "Timothy", "tm": "Timothy",
	"pet": "Peter", "pe": "Peter", "pt": "Peter",
	"jn": "John", "jo": "John", "jhn": "John", "joh": "John",
}

var romanNumerals = [...]string{1: "I", 2: "II", 3: "III"}

// Normalize maps an abbreviated or numbered book name to the fuller name a
// book index is most likely to hold:
//
//   - a known unnumbered short form maps through a fixed table, with or
//     without a trailing period ("Мт." → "Від Матвія", "Gen" → "Genesis")
//   - a numeral 1-3 followed by an abbreviation becomes a Roman numeral and
//     the abbreviation's book root ("2 Кор" → "II до Коринтян",
//     "1Jn." → "I John"); the root is found exactly or as the longest root
//     prefixing the abbreviation
//
// Anything else, including other numerals, is returned unchanged.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	key := foldKey(name)
	if key == "" {
		return name
	}

	if full, ok := shortForms[key]; ok {
		return full
	}

	digits := strings.IndexFunc(key, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits <= 0 {
		return name
	}
	n, err := strconv.Atoi(key[:digits])
	if err != nil || n < 1 || n > 3 {
		return name
	}
	abbr := strings.TrimLeftFunc(key[digits:], unicode.IsSpace)
	if abbr == "" || strings.ContainsFunc(abbr, unicode.IsSpace) {
		return name
	}
	if root, ok := lookupRoot(abbr); ok {
		return romanNumerals[n] + " " + root
	}
	return name
}

func lookupRoot(abbr string) (string, bool) {
	if root, ok := numberedRoots[abbr]; ok {
		return root, true
	}
	var (
		best    string
		bestLen int
	)
	for prefix, root := range numberedRoots {
		if len(prefix) > bestLen && strings.HasPrefix(abbr, prefix) {
			best, bestLen = root, len(prefix)
		}
	}
	return best, bestLen > 0
}

// foldKey lowercases name, unifies apostrophes and drops a trailing period.
func foldKey(name string) string {
	key := strings.ToLower(strings.TrimSuffix(name, "."))
	key = strings.NewReplacer("’", "'", "ʼ", "'").Replace(key)
	return strings.TrimSpace(key)
}
