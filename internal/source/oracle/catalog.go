package oracle

import "github.com/timmy/ghostline/internal/domain"

type template struct {
	Title          string
	Tags           []string
	DigitalContent string
	ImagePrompt    string
}

type bundleTemplate struct {
	Title      string
	PromptPack int
	Kit        int
	Tags       []string
}

type weighted struct {
	Category domain.Category
	Weight   float64
}

// Bundles dominate: higher price, higher order value.
var categoryWeights = []weighted{
	{domain.CategoryBundle, 0.55},
	{domain.CategoryAutomationKit, 0.30},
	{domain.CategoryPromptPack, 0.15},
}

var priceLadders = map[domain.Category][]float64{
	domain.CategoryPromptPack:    {12, 17, 24, 29},
	domain.CategoryAutomationKit: {39, 59, 79, 119, 149},
	domain.CategoryBundle:        {129, 179, 249, 299, 399},
}

var hooks = []string{
	"Limited-time bundle drop",
	"Only chance to grab this combo",
	"Playbook they don't want you to have",
	"Founder-grade system in a box",
	"Steal my workflow (ethically)",
	"Unfair advantage kit",
}

var niches = []string{
	"creator economy",
	"ecommerce",
	"agency ops",
	"productivity",
	"personal brand",
	"AI content",
}

var promptPacks = []template{
	{
		Title:          "Midjourney V6 Cyber-Noir Prompt Pack",
		Tags:           []string{"midjourney", "prompt pack", "cyber noir", "ai art"},
		DigitalContent: "Includes: 60 image prompts + 10 style recipes + 5 upscale presets.\nUse: paste prompts into Midjourney or similar tools.\nBonus: 'Consistency' mini-guide.",
		ImagePrompt:    "Futuristic cyber-noir moodboard, neon rain, cinematic lighting, high contrast, sleek typography, digital product cover",
	},
	{
		Title:          "ChatGPT High-Converting Landing Page Prompt Pack",
		Tags:           []string{"chatgpt", "copywriting", "landing page", "prompts"},
		DigitalContent: "Includes: 40 prompts for hooks, offers, FAQs, objection handling, and A/B variants.\nBonus: 10 'limited-time' angle templates.",
		ImagePrompt:    "Minimalist dark tech cover, electric purple accent, crisp typography, 'Prompt Pack' label, modern ecommerce style",
	},
	{
		Title:          "YouTube Script Hooks Prompt Pack (Tech + AI)",
		Tags:           []string{"youtube", "scripts", "hooks", "prompts"},
		DigitalContent: "Includes: 100 hook formulas + 25 cold-open templates + 10 retention loops.\nBonus: pacing guide + CTA library.",
		ImagePrompt:    "Bold modern cover, dark background, high contrast title, play button motif abstract, digital product design",
	},
}

var automationKits = []template{
	{
		Title:          "Ultimate Notion CRM System (Templates + SOPs)",
		Tags:           []string{"notion", "crm", "templates", "operations"},
		DigitalContent: "Includes: Notion CRM template + pipeline views + onboarding SOPs + follow-up sequences.\nBonus: KPI dashboard + daily workflow.",
		ImagePrompt:    "Clean SaaS-style dashboard mock cover, dark mode UI, minimal, professional, digital template kit",
	},
	{
		Title:          "E-commerce Email Automation Kit (Welcome + Abandon + Winback)",
		Tags:           []string{"ecommerce", "email", "automation", "klaviyo", "shopify"},
		DigitalContent: "Includes: 12 email templates + flow map (welcome/abandon/winback) + segmentation rules.\nBonus: subject line bank.",
		ImagePrompt:    "Email flow diagram aesthetic, dark theme, modern arrows, digital kit packaging design",
	},
	{
		Title:          "Freelance Client Onboarding Workflow (Contracts + Checklist + Emails)",
		Tags:           []string{"freelance", "onboarding", "workflow", "operations"},
		DigitalContent: "Includes: onboarding checklist + email sequence + intake form + project kickoff SOP.\nBonus: scope-control scripts.",
		ImagePrompt:    "Minimal pro cover, checklist motif, dark theme, clean typography, digital workflow kit",
	},
}

var bundles = []bundleTemplate{
	{
		Title:      "Creator Growth Bundle: Hooks + Funnel System",
		PromptPack: 2,
		Kit:        0,
		Tags:       []string{"bundle", "creator", "growth", "system"},
	},
	{
		Title:      "E-commerce Revenue Bundle: Copy Prompts + Email Automation",
		PromptPack: 1,
		Kit:        1,
		Tags:       []string{"bundle", "ecommerce", "conversion", "automation"},
	},
	{
		Title:      "Client Machine Bundle: Sales Page Prompts + Onboarding Workflow",
		PromptPack: 1,
		Kit:        2,
		Tags:       []string{"bundle", "agency", "ops", "automation"},
	},
}

const bundleImagePrompt = "Premium bundle cover design, dark luxury tech theme, electric purple accent, 'Bundle' label, modern ecommerce hero image, clean typography, digital product packaging"
