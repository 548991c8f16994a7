package crimeviz

type Palette []string

var (
	Category10 Palette
	Tableau10  Palette
)

func init() {
	Category10 = splitColorString("1f77b4ff7f0e2ca02cd627289467bd8c564be377c27f7f7fbcbd2217becf")
	Tableau10 = splitColorString("4e79a7f28e2ce1575976b7b259a14fedc949af7aa1ff9da79c755fbab0ab")

	Blues = map[int]Palette{
		3: splitColorString("deebf79ecae13182bd"),
		4: splitColorString("eff3ffbdd7e76baed62171b5"),
		5: splitColorString("eff3ffbdd7e76baed63182bd08519c"),
		6: splitColorString("eff3ffc6dbef9ecae16baed63182bd08519c"),
		7: splitColorString("eff3ffc6dbef9ecae16baed64292c62171b5084594"),
		8: splitColorString("f7fbffdeebf7c6dbef9ecae16baed64292c62171b5084594"),
		9: splitColorString("f7fbffdeebf7c6dbef9ecae16baed64292c62171b508519c08306b"),
	}
}

func splitColorString(str string) []string {
	var arr []string
	for i := 0; i < len(str); i += 6 {
		arr = append(arr, "#"+str[i:i+6])
	}
	return arr
}

// Blues holds the sequential blue scheme for sizes 3 to 9.
var Blues map[int]Palette

func BluesScheme(n int) Palette {
	n = min(9, max(3, n))
	return Blues[n]
}

// Ordinal assigns colors to labels in order of first appearance, cycling
// through the palette.
func (p Palette) Ordinal(labels []string) map[string]string {
	colors := make(map[string]string)
	if len(p) == 0 {
		return colors
	}
	for _, label := range labels {
		if _, ok := colors[label]; ok {
			continue
		}
		colors[label] = p[len(colors)%len(p)]
	}
	return colors
}

const DefaultCategoryColor = "#cccccc"

var CategoryColors = map[string]string{
	"VIOLENCE AGAINST THE PERSON":          "#1f77b4",
	"SEXUAL OFFENCES":                      "#ff7f0e",
	"ROBBERY":                              "#2ca02c",
	"THEFT":                                "#d62728",
	"BURGLARY":                             "#9467bd",
	"DRUG OFFENCES":                        "#8c564b",
	"CRIMINAL DAMAGE":                      "#e377c2",
	"PUBLIC ORDER OFFENCES":                "#7f7f7f",
	"POSSESSION OF WEAPONS":                "#bcbd22",
	"MISCELLANEOUS CRIMES AGAINST SOCIETY": "#17becf",
	"FRAUD AND FORGERY":                    "#aec7e8",
	"VEHICLE OFFENCES":                     "#ffbb78",
}

func CategoryColor(category string) string {
	if c, ok := CategoryColors[category]; ok {
		return c
	}
	return DefaultCategoryColor
}
