// Package navigation describes the campaign knowledge sub-views a client renders.
package navigation

import "net/url"

type Link struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Subtitle string `json:"subtitle"`
	Path     string `json:"path"`
	Active   bool   `json:"active"`
}

type route struct {
	key, label, subtitle string
}

var campaignRoutes = []route{
	{"overview", "Overview", "Knowledge graph"},
	{"attribution", "Attribution", "Origins of this campaign"},
	{"victimology", "Victimology", "Targeted in this campaign"},
	{"incidents", "Incidents", "Attributed to this campaign"},
	{"malwares", "Malwares", "Used in this campaign"},
	{"ttp", "Tactics", "Used in this campaign"},
	{"tools", "Tools", "Used in this campaign"},
	{"vulnerabilities", "Vulnerabilities", "Targeted in this campaign"},
}

// CampaignKnowledgePath is the client path of one knowledge sub-view.
func CampaignKnowledgePath(campaignID, key string) string {
	return "/dashboard/knowledge/campaigns/" + url.PathEscape(campaignID) + "/knowledge/" + key
}

// KnowledgeBar lists the knowledge sub-views of a campaign in display order.
// A link is active only when currentPath equals its path exactly.
func KnowledgeBar(campaignID, currentPath string) []Link {
	links := make([]Link, 0, len(campaignRoutes))
	for _, r := range campaignRoutes {
		path := CampaignKnowledgePath(campaignID, r.key)
		links = append(links, Link{
			Key:      r.key,
			Label:    r.label,
			Subtitle: r.subtitle,
			Path:     path,
			Active:   path == currentPath,
		})
	}
	return links
}
