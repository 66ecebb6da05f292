package content

import (
	"heartrisk/ml"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	keyPredictTitle   = "predict.title"
	keyPredictPrompt  = "predict.prompt"
	keyResultHeading  = "predict.result"
	keyRiskHigh       = "risk.high"
	keyRiskLow        = "risk.low"
	keyNewsTitle      = "news.title"
	keyNewsHeading    = "news.heading"
	keyChartHeading   = "chart.heading"
	keyChartTitle     = "chart.title"
	keyChartYear      = "chart.year"
	keyChartUsers     = "chart.users"
	keyChartUserCount = "chart.user_count"
	keyChartNote      = "chart.note"
)

var supported = []language.Tag{language.Thai, language.English}

var matcher = language.NewMatcher(supported)

func init() {
	set := func(tag language.Tag, key, msg string) {
		if err := message.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.Thai, keyPredictTitle, "Heart Disease Prediction App 💓")
	set(language.Thai, keyPredictPrompt, "กรอกข้อมูลด้านล่างเพื่อทำนายความเสี่ยงโรคหัวใจ")
	set(language.Thai, keyResultHeading, "ผลการทำนาย:")
	set(language.Thai, keyRiskHigh, "⚠️ ความเสี่ยงโรคหัวใจสูง (%.2f%%)")
	set(language.Thai, keyRiskLow, "✅ ความเสี่ยงโรคหัวใจต่ำ (%.2f%%)")
	set(language.Thai, keyNewsTitle, "📢 ข่าวสารและสถิติเกี่ยวกับบุหรี่ไฟฟ้า")
	set(language.Thai, keyNewsHeading, "🗞 ข่าวล่าสุดเกี่ยวกับบุหรี่ไฟฟ้า")
	set(language.Thai, keyChartHeading, "📊 จำนวนผู้ใช้บุหรี่ไฟฟ้าในไทย (จำลอง)")
	set(language.Thai, keyChartTitle, "แนวโน้มจำนวนผู้ใช้บุหรี่ไฟฟ้าในไทย")
	set(language.Thai, keyChartYear, "ปี")
	set(language.Thai, keyChartUsers, "จำนวนผู้ใช้")
	set(language.Thai, keyChartUserCount, "%d คน")
	set(language.Thai, keyChartNote, "📌 หมายเหตุ: ข้อมูลจำลองเพื่อการนำเสนอ หากต้องการใช้ข้อมูลจริงสามารถเชื่อมกับแหล่งข้อมูลภายนอกได้")

	set(language.English, keyPredictTitle, "Heart Disease Prediction App 💓")
	set(language.English, keyPredictPrompt, "Fill in the details below to estimate your heart disease risk")
	set(language.English, keyResultHeading, "Prediction result:")
	set(language.English, keyRiskHigh, "⚠️ High heart disease risk (%.2f%%)")
	set(language.English, keyRiskLow, "✅ Low heart disease risk (%.2f%%)")
	set(language.English, keyNewsTitle, "📢 E-cigarette news and statistics")
	set(language.English, keyNewsHeading, "🗞 Latest e-cigarette news")
	set(language.English, keyChartHeading, "📊 E-cigarette users in Thailand (simulated)")
	set(language.English, keyChartTitle, "Trend of e-cigarette users in Thailand")
	set(language.English, keyChartYear, "Year")
	set(language.English, keyChartUsers, "Users")
	set(language.English, keyChartUserCount, "%d people")
	set(language.English, keyChartNote, "📌 Note: simulated data for presentation only; connect an external source for real figures.")
}

// Language picks Thai or English from an explicit choice, then the
// Accept-Language header, then fallback.
func Language(explicit, acceptLanguage string, fallback language.Tag) language.Tag {
	for _, candidate := range []string{explicit, acceptLanguage} {
		if candidate == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(candidate)
		if err != nil || len(tags) == 0 {
			continue
		}
		if _, index, confidence := matcher.Match(tags...); confidence != language.No {
			return supported[index]
		}
	}
	return fallback
}

// ParseLanguage maps a configured language code to a supported tag.
func ParseLanguage(code string) language.Tag {
	return Language(code, "", language.Thai)
}

// Percent converts a class-1 probability to the displayed percentage.
func Percent(probability float64) float64 {
	return probability * 100
}

// RiskMessage renders the binary risk verdict with its percentage.
func RiskMessage(tag language.Tag, result ml.PredictionResult) string {
	p := message.NewPrinter(tag)
	if result.PredictedClass == 1 {
		return p.Sprintf(keyRiskHigh, Percent(result.ProbabilityOfClass1))
	}
	return p.Sprintf(keyRiskLow, Percent(result.ProbabilityOfClass1))
}

// PredictPage holds the localised captions of the prediction page.
type PredictPage struct {
	Title         string `json:"title"`
	Prompt        string `json:"prompt"`
	ResultHeading string `json:"result_heading"`
}

func PredictPageText(tag language.Tag) PredictPage {
	p := message.NewPrinter(tag)
	return PredictPage{
		Title:         p.Sprintf(keyPredictTitle),
		Prompt:        p.Sprintf(keyPredictPrompt),
		ResultHeading: p.Sprintf(keyResultHeading),
	}
}

// Chart is the localised rendering model of the usage series.
type Chart struct {
	Heading string       `json:"heading"`
	Title   string       `json:"title"`
	XLabel  string       `json:"x_label"`
	YLabel  string       `json:"y_label"`
	Note    string       `json:"note"`
	Points  []ChartPoint `json:"points"`
}

type ChartPoint struct {
	UsagePoint
	Label string `json:"label"`
}

func BuildChart(tag language.Tag, series []UsagePoint) (Chart, error) {
	if err := ValidateSeries(series); err != nil {
		return Chart{}, err
	}
	p := message.NewPrinter(tag)
	points := make([]ChartPoint, len(series))
	for i, point := range series {
		points[i] = ChartPoint{UsagePoint: point, Label: p.Sprintf(keyChartUserCount, point.Users)}
	}
	return Chart{
		Heading: p.Sprintf(keyChartHeading),
		Title:   p.Sprintf(keyChartTitle),
		XLabel:  p.Sprintf(keyChartYear),
		YLabel:  p.Sprintf(keyChartUsers),
		Note:    p.Sprintf(keyChartNote),
		Points:  points,
	}, nil
}

// NewsPage is the localised news section.
type NewsPage struct {
	Title   string     `json:"title"`
	Heading string     `json:"heading"`
	Items   []NewsItem `json:"items"`
}

func BuildNewsPage(tag language.Tag, items []NewsItem) NewsPage {
	p := message.NewPrinter(tag)
	return NewsPage{
		Title:   p.Sprintf(keyNewsTitle),
		Heading: p.Sprintf(keyNewsHeading),
		Items:   items,
	}
}
