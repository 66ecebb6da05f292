// Package content holds the static material of the informational page: the
// e-cigarette news items and the simulated user-count series.
package content

import (
	"errors"
	"fmt"
)

type NewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// UsagePoint is one simulated (year, users) observation.
type UsagePoint struct {
	Year  int   `json:"year"`
	Users int64 `json:"users"`
}

func NewsItems() []NewsItem {
	return []NewsItem{
		{
			Title:   "ราชกิจจาฯ ประกาศเพิ่ม “บุหรี่ไฟฟ้า-บารากู่” ในกฎกระทรวงกำหนดความประพฤติ นร.-นศ.",
			URL:     "https://www.thairath.co.th/news/politic/2851450",
			Summary: "เมื่อวันที่ 4 เมษายน 2568 ราชกิจจานุเบกษาเผยแพร่กฎกระทรวงใหม่ที่กำหนดความประพฤติของนักเรียนและนักศึกษา โดยได้มีการ เพิ่ม “บุหรี่ไฟฟ้า” และ “บารากู่ไฟฟ้า” เข้าไปในรายการพฤติกรรมต้องห้าม เช่นเดียวกับสุรา บุหรี่ และยาเสพติดเดิม",
		},
		{
			Title:   "พบ! เด็กสูบบุหรี่ไฟฟ้าตั้งแต่ประถมศึกษา ไม่รู้ว่าเป็นสิ่งเสพติดอันตราย",
			URL:     "https://www.hfocus.org/content/2023/11/28938",
			Summary: "VicHealth สสส.แคว้นวิกตอเรีย เผย บุหรี่ไฟฟ้าปัญหาความท้าทายใหม่ของโลก ตัวการทำลายสุขภาพ เสี่ยงเด็กเป็นนักเสพสูง เฉพาะออสเตรเลียเริ่มสูบอายุ 14 ปี เด็กสูบบุหรี่ไฟฟ้ามากกว่าบุหรี่ธรรมดา 3 เท่า เร่งทุกประเทศให้ความสำคัญการจัดการกับปัจจัยการค้ากำหนดสุขภาพ นักวิชาการไทย ชี้ เด็ก เยาวชนไม่รู้ว่าบุหรี่ไฟฟ้าอันตราย เหตุธุรกิจยาสูบบิดเบือนข้อเท็จจริง",
		},
	}
}

// UsageSeries is simulated data for presentation only.
func UsageSeries() []UsagePoint {
	return []UsagePoint{
		{Year: 2019, Users: 150000},
		{Year: 2020, Users: 200000},
		{Year: 2021, Users: 250000},
		{Year: 2022, Users: 300000},
		{Year: 2023, Users: 380000},
		{Year: 2024, Users: 450000},
	}
}

// ValidateSeries requires a non-empty series, strictly increasing in both
// year and user count.
func ValidateSeries(points []UsagePoint) error {
	if len(points) == 0 {
		return errors.New("usage series is empty")
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.Year <= prev.Year {
			return fmt.Errorf("year %d does not follow %d", cur.Year, prev.Year)
		}
		if cur.Users <= prev.Users {
			return fmt.Errorf("users for %d (%d) not above %d (%d)", cur.Year, cur.Users, prev.Year, prev.Users)
		}
	}
	return nil
}
