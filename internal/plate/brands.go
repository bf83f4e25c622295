package plate

import "strings"

// brandAliases maps lower-cased free-text brand phrases to the canonical
// make used as the image search key.
var brandAliases = map[string]string{
	"alfa romeo":    "alfa romeo",
	"alfa":          "alfa romeo",
	"alpine":        "alpine",
	"aston martin":  "aston martin",
	"aston":         "aston martin",
	"audi":          "audi",
	"bentley":       "bentley",
	"bmw":           "bmw",
	"byd":           "byd",
	"chevrolet":     "chevrolet",
	"citroen":       "citroen",
	"cupra":         "cupra",
	"dfsk":          "dfsk",
	"ds":            "ds",
	"ferrari":       "ferrari",
	"fiat":          "fiat",
	"ford":          "ford",
	"foton":         "foton",
	"golden dragon": "golden dragon",
	"hino":          "hino",
	"honda":         "honda",
	"hyundai":       "hyundai",
	"isuzu":         "isuzu",
	"jaguar":        "jaguar",
	"jeep":          "jeep",
	"kia":           "kia",
	"lamborghini":   "lamborghini",
	"lambo":         "lamborghini",
	"land rover":    "land rover",
	"lexus":         "lexus",
	"lotus":         "lotus",
	"maserati":      "maserati",
	"maxus":         "maxus",
	"mazda":         "mazda",
	"mclaren":       "mclaren",
	"mercedes-benz": "mercedes-benz",
	"mercedes":      "mercedes-benz",
	"mercs":         "mercedes-benz",
	"mg":            "mg",
	"mini":          "mini",
	"mitsubishi":    "mitsubishi",
	"m":             "mitsubishi",
	"mitsuoka":      "mitsuoka",
	"morgan":        "morgan",
	"nissan":        "nissan",
	"opel":          "opel",
	"pagani":        "pagani",
	"perodua":       "perodua",
	"peugeot":       "peugeot",
	"polestar":      "polestar",
	"porsche":       "porsche",
	"renault":       "renault",
	"rolls-royce":   "rolls-royce",
	"rr":            "rolls-royce",
	"seat":          "seat",
	"skoda":         "skoda",
	"smart":         "smart",
	"sokon":         "sokon",
	"ssangyong":     "ssangyong",
	"sy":            "ssangyong",
	"subaru":        "subaru",
	"suzuki":        "suzuki",
	"tesla":         "tesla",
	"toyota":        "toyota",
	"volkswagen":    "volkswagen",
	"vw":            "volkswagen",
	"volvo":         "volvo",
}

// ResolveBrand maps a free-text phrase to a canonical car make. The lookup
// is case-insensitive and matches the whole phrase only.
func ResolveBrand(s string) (string, bool) {
	canonical, ok := brandAliases[strings.ToLower(strings.TrimSpace(s))]
	return canonical, ok
}
