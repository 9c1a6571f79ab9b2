package provider

// defaultProviders is the built-in table, in display order.
var defaultProviders = []Provider{
	{
		Name:        "openai",
		DisplayName: "OpenAI",
		StatusPage:  "https://status.openai.com",
		RSSFeed:     "https://status.openai.com/history.rss",
		LogoURL:     "https://openai.com/favicon.ico",
		Color:       "#10a37f",
		Description: "ChatGPT, GPT-4, DALL-E, Whisper",
	},
	{
		Name:        "anthropic",
		DisplayName: "Anthropic (Claude)",
		StatusPage:  "https://status.anthropic.com",
		RSSFeed:     "https://status.anthropic.com/history.rss",
		LogoURL:     "https://www.anthropic.com/favicon.ico",
		Color:       "#d4a27f",
		Description: "Claude AI Assistant",
	},
	{
		Name:        "google",
		DisplayName: "Google (Gemini)",
		StatusPage:  "https://status.cloud.google.com/products/ai-platform/gemini-api",
		RSSFeed:     "https://status.cloud.google.com/feed.atom",
		LogoURL:     "https://www.gstatic.com/lamda/images/favicon_v1_150160cddff7f294ce30.svg",
		Color:       "#4285f4",
		Description: "Gemini AI, Google AI Studio",
	},
	{
		Name:        "groq",
		DisplayName: "Groq",
		StatusPage:  "https://status.groq.com",
		RSSFeed:     "https://status.groq.com/history.rss",
		LogoURL:     "https://groq.com/favicon.ico",
		Color:       "#f55036",
		Description: "Ultra-fast AI Inference",
	},
	{
		Name:        "cohere",
		DisplayName: "Cohere",
		StatusPage:  "https://status.cohere.com",
		RSSFeed:     "https://status.cohere.com/history.rss",
		LogoURL:     "https://cohere.com/favicon.ico",
		Color:       "#39594d",
		Description: "Enterprise AI Platform",
	},
	{
		Name:        "perplexity",
		DisplayName: "Perplexity",
		StatusPage:  "https://status.perplexity.ai",
		RSSFeed:     "https://status.perplexity.ai/history.rss",
		LogoURL:     "https://www.perplexity.ai/favicon.svg",
		Color:       "#20808d",
		Description: "AI-Powered Search",
	},
	{
		Name:        "mistral",
		DisplayName: "Mistral AI",
		StatusPage:  "https://status.mistral.ai",
		RSSFeed:     "https://status.mistral.ai/history.rss",
		LogoURL:     "https://mistral.ai/favicon.ico",
		Color:       "#f2a73b",
		Description: "Open and Portable AI",
	},
	{
		Name:        "together",
		DisplayName: "Together AI",
		StatusPage:  "https://status.together.ai",
		RSSFeed:     "https://status.together.ai/history.rss",
		LogoURL:     "https://www.together.ai/favicon.ico",
		Color:       "#7c3aed",
		Description: "Leading Open Source AI",
	},
	{
		Name:        "xai",
		DisplayName: "xAI (Grok)",
		StatusPage:  "https://status.x.ai",
		RSSFeed:     "https://status.x.ai/history.rss",
		LogoURL:     "https://x.ai/favicon.ico",
		Color:       "#000000",
		Description: "Grok AI Assistant",
	},
	{
		Name:        "cartesia",
		DisplayName: "Cartesia",
		StatusPage:  "https://status.cartesia.ai",
		RSSFeed:     "https://status.cartesia.ai/history.rss",
		LogoURL:     "https://cartesia.ai/favicon.ico",
		Color:       "#ff3366",
		Description: "Real-time Voice AI",
	},
	{
		Name:        "deepgram",
		DisplayName: "Deepgram",
		StatusPage:  "https://status.deepgram.com",
		RSSFeed:     "https://status.deepgram.com/history.rss",
		LogoURL:     "https://deepgram.com/favicon.ico",
		Color:       "#38bdf8",
		Description: "Voice AI Platform",
	},
	{
		Name:        "stability",
		DisplayName: "Stability AI",
		StatusPage:  "https://status.stability.ai",
		RSSFeed:     "https://status.stability.ai/history.rss",
		LogoURL:     "https://stability.ai/favicon.ico",
		Color:       "#4c1d95",
		Description: "Stable Diffusion & Audio",
	},
	{
		Name:        "huggingface",
		DisplayName: "Hugging Face",
		StatusPage:  "https://status.huggingface.co",
		RSSFeed:     "https://status.huggingface.co/rss",
		LogoURL:     "https://huggingface.co/favicon.ico",
		Color:       "#fbbf24",
		Description: "The AI Community",
	},
	{
		Name:        "replicate",
		DisplayName: "Replicate",
		StatusPage:  "https://replicatestatus.com",
		RSSFeed:     "https://replicatestatus.com/feed",
		LogoURL:     "https://replicate.com/favicon.ico",
		Color:       "#000000",
		Description: "Run AI with an API",
	},
}

// Default returns the built-in provider registry.
func Default() *Registry {
	return MustNewRegistry(defaultProviders)
}
