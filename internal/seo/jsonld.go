package seo

// WebSite returns a minimal WebSite schema.
func WebSite(name, siteURL, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if siteURL != "" {
		m["url"] = siteURL
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// NewsArticle returns a minimal NewsArticle schema payload.
func NewsArticle(headline, imageURL, section, datePublished, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "NewsArticle",
		"headline": headline,
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if section != "" {
		m["articleSection"] = section
	}
	if datePublished != "" {
		m["datePublished"] = datePublished
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}
