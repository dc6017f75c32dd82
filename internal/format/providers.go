package format

import "strings"

var providerNames = map[string]string{
	"firecrawl":    "Firecrawl",
	"crawl4ai":     "Crawl4AI",
	"aliyun_iqs":   "Aliyun Unified Search",
	"oss":          "Object Storage (OSS)",
	"openai":       "OpenAI",
	"deepseek":     "DeepSeek",
	"azure_openai": "Azure OpenAI",
	"ali":          "Tongyi Qianwen",
	"dashscope":    "Tongyi Qianwen",
	"tongyi":       "Tongyi Qianwen",
	"qwen":         "Tongyi Qianwen",
	"moonshot":     "Moonshot",
	"kimi":         "Kimi",
	"baidu":        "ERNIE Bot",
	"wenxin":       "ERNIE Bot",
}

var providerURLs = map[string]string{
	"firecrawl":    "https://www.firecrawl.dev/",
	"crawl4ai":     "https://github.com/unclecode/crawl4ai",
	"aliyun_iqs":   "https://ipaas.console.aliyun.com/",
	"oss":          "https://oss.console.aliyun.com/",
	"openai":       "https://platform.openai.com/api-keys",
	"deepseek":     "https://platform.deepseek.com/api_keys",
	"azure_openai": "https://portal.azure.com/",
	"ali":          "https://dashscope.console.aliyun.com/apiKey",
	"dashscope":    "https://dashscope.console.aliyun.com/apiKey",
	"tongyi":       "https://dashscope.console.aliyun.com/apiKey",
	"qwen":         "https://dashscope.console.aliyun.com/apiKey",
	"moonshot":     "https://platform.moonshot.cn/console/api-keys",
	"kimi":         "https://platform.moonshot.cn/console/api-keys",
	"baidu":        "https://console.bce.baidu.com/qianfan/ais/console/applicationConsole/application",
	"wenxin":       "https://console.bce.baidu.com/qianfan/ais/console/applicationConsole/application",
}

// ModelProviders are the LLM providers articles can be generated with
var ModelProviders = []string{"deepseek", "openai", "ali", "moonshot", "kimi", "azure_openai", "baidu"}

func providerKey(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// ProviderName returns the display name of a provider, or "" when unknown
func ProviderName(p string) string {
	return providerNames[providerKey(p)]
}

// ProviderURL returns where to obtain an API key for a provider, or "" when unknown
func ProviderURL(p string) string {
	return providerURLs[providerKey(p)]
}

// Provider renders a provider for tables: display name when known, raw value otherwise
func Provider(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	if name := ProviderName(*p); name != "" {
		return name
	}
	return *p
}
