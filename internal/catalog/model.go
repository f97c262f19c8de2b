package catalog

// Item is a deficiency type a technician can record at a site.
type Item struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Unit               string   `json:"unit"`
	Simple             bool     `json:"simple"`
	Verticals          []string `json:"verticals"`
	WhyItMatters       string   `json:"whyItMatters"`
	ComplianceRefs     []string `json:"complianceRefs"`
	UnderwritingWeight string   `json:"underwritingWeight"`
}
