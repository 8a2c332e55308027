package textnorm

// stopWords lists prose words that carry no locating value on a drawing
// sheet: function words plus citation vocabulary in Russian and English.
// Keys are case-folded.
var stopWords = map[string]struct{}{
	// Russian function words
	"и": {}, "в": {}, "во": {}, "на": {}, "по": {}, "с": {}, "со": {}, "к": {}, "ко": {},
	"о": {}, "об": {}, "от": {}, "до": {}, "для": {}, "из": {}, "за": {}, "при": {},
	"без": {}, "под": {}, "над": {}, "что": {}, "как": {}, "это": {}, "этот": {},
	"эта": {}, "эти": {}, "также": {}, "так": {}, "же": {}, "не": {}, "нет": {},
	"или": {}, "а": {}, "но": {}, "где": {}, "который": {}, "которая": {},
	"которые": {}, "котором": {}, "которой": {}, "согласно": {}, "либо": {},
	"том": {}, "числе": {}, "всех": {}, "все": {}, "его": {}, "их": {},
	// Russian citation vocabulary
	"лист": {}, "листе": {}, "листа": {}, "листы": {}, "листах": {}, "листов": {},
	"страница": {}, "странице": {}, "страницы": {}, "страниц": {}, "стр": {},
	"см": {}, "чертеж": {}, "чертеже": {}, "чертежа": {}, "чертежах": {},
	"указан": {}, "указано": {}, "указаны": {}, "указана": {},
	"приведен": {}, "приведено": {}, "приведены": {}, "приведена": {},
	"представлен": {}, "представлено": {}, "представлены": {},
	"показан": {}, "показано": {}, "показаны": {}, "показана": {},
	"отражен": {}, "отражено": {}, "отражены": {},
	"документации": {}, "документация": {}, "проекта": {}, "проекте": {},
	"разделе": {}, "ссылка": {},
	// English function words
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "on": {}, "in": {},
	"at": {}, "to": {}, "for": {}, "with": {}, "by": {}, "from": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "as": {}, "per": {}, "also": {}, "its": {}, "which": {},
	"where": {}, "there": {}, "here": {},
	// English citation vocabulary
	"see": {}, "sheet": {}, "sheets": {}, "page": {}, "pages": {}, "shown": {},
	"showing": {}, "shows": {}, "containing": {}, "contains": {}, "drawing": {},
	"drawings": {}, "provided": {}, "indicated": {}, "specified": {},
	"documentation": {}, "reference": {},
}

// IsStopWord reports whether w (any case) is a stop word.
func IsStopWord(w string) bool {
	_, ok := stopWords[Fold(w)]
	return ok
}
