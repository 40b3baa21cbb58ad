package schema

import "github.com/dalemusser/stratasite/internal/domain/models"

func heading() Field { return str("heading", "heading") }

func featureItems(name, key string) Field {
	return objects(name, key, "FeatureItem",
		required(str("title", "title")),
		text("description", "description"),
		ref("icon", "icon", Media),
	)
}

// Blocks declares the field subset of every section variant, in the same
// order as models.AllBlockTypes.
var Blocks = []Block{
	{Type: models.BlockHero, Object: "HeroSection", Label: "Hero", Fields: []Field{
		required(heading()),
		text("subheading", "subheading"),
		ref("backgroundImage", "background_image", Media),
		str("ctaLabel", "cta_label"),
		str("ctaLink", "cta_link"),
	}},
	{Type: models.BlockRichText, Object: "RichTextSection", Label: "Rich Text", Fields: []Field{
		heading(),
		required(text("body", "body")),
	}},
	{Type: models.BlockFAQ, Object: "FaqSection", Label: "FAQ", Fields: []Field{
		heading(),
		required(objects("faqs", "faqs", "FaqItem",
			required(str("question", "question")),
			required(text("answer", "answer")),
		)),
	}},
	{Type: models.BlockJobList, Object: "JobListSection", Label: "Job List", Fields: []Field{
		heading(),
		text("intro", "intro"),
		refs("jobs", "jobs", Jobs),
		flag("showAllActive", "show_all_active"),
	}},
	{Type: models.BlockTimeline, Object: "TimelineSection", Label: "Timeline", Fields: []Field{
		heading(),
		refs("entries", "entries", Timeline),
	}},
	{Type: models.BlockResourceGallery, Object: "ResourceGallerySection", Label: "Resource Gallery", Fields: []Field{
		heading(),
		refs("resources", "resources", Resources),
	}},
	{Type: models.BlockServiceGrid, Object: "ServiceGridSection", Label: "Service Grid", Fields: []Field{
		heading(),
		text("intro", "intro"),
		refs("services", "services", Services),
	}},
	{Type: models.BlockSolutionGrid, Object: "SolutionGridSection", Label: "Solution Grid", Fields: []Field{
		heading(),
		text("intro", "intro"),
		refs("solutions", "solutions", Solutions),
	}},
	{Type: models.BlockProjectShowcase, Object: "ProjectShowcaseSection", Label: "Project Showcase", Fields: []Field{
		heading(),
		refs("projects", "projects", Projects),
	}},
	{Type: models.BlockPartnerLogos, Object: "PartnerLogosSection", Label: "Partner Logos", Fields: []Field{
		heading(),
		refs("partners", "partners", Partners),
	}},
	{Type: models.BlockTestimonials, Object: "TestimonialSection", Label: "Testimonials", Fields: []Field{
		heading(),
		refs("testimonials", "testimonials", Testimonials),
	}},
	{Type: models.BlockAwards, Object: "AwardsSection", Label: "Awards", Fields: []Field{
		heading(),
		refs("awards", "awards", Awards),
	}},
	{Type: models.BlockStats, Object: "StatsSection", Label: "Stats", Fields: []Field{
		heading(),
		refs("stats", "stats", Stats),
	}},
	{Type: models.BlockCTA, Object: "CtaSection", Label: "Call to Action", Fields: []Field{
		required(heading()),
		text("body", "body"),
		str("buttonLabel", "button_label"),
		str("buttonLink", "button_link"),
		ref("backgroundImage", "background_image", Media),
	}},
	{Type: models.BlockImageText, Object: "ImageTextSection", Label: "Image + Text", Fields: []Field{
		heading(),
		text("body", "body"),
		ref("image", "image", Media),
		enum(str("imagePosition", "image_position"), "left", "right"),
	}},
	{Type: models.BlockVideo, Object: "VideoSection", Label: "Video", Fields: []Field{
		heading(),
		required(str("videoUrl", "video_url")),
		ref("poster", "poster", Media),
	}},
	{Type: models.BlockGallery, Object: "GallerySection", Label: "Gallery", Fields: []Field{
		heading(),
		refs("images", "images", Media),
	}},
	{Type: models.BlockContactForm, Object: "ContactFormSection", Label: "Contact Form", Fields: []Field{
		heading(),
		text("intro", "intro"),
		strs("interestOptions", "interest_options"),
	}},
	{Type: models.BlockNewsletter, Object: "NewsletterSection", Label: "Newsletter", Fields: []Field{
		heading(),
		text("intro", "intro"),
		str("source", "source"),
	}},
	{Type: models.BlockTeam, Object: "TeamSection", Label: "Team", Fields: []Field{
		heading(),
		required(objects("members", "members", "TeamMember",
			required(str("name", "name")),
			str("role", "role"),
			ref("photo", "photo", Media),
			text("bio", "bio"),
		)),
	}},
	{Type: models.BlockFeatureList, Object: "FeatureListSection", Label: "Feature List", Fields: []Field{
		heading(),
		required(featureItems("features", "features")),
	}},
	{Type: models.BlockProcessSteps, Object: "ProcessStepsSection", Label: "Process Steps", Fields: []Field{
		heading(),
		required(objects("steps", "steps", "ProcessStep",
			required(str("title", "title")),
			text("description", "description"),
		)),
	}},
	{Type: models.BlockQuote, Object: "QuoteSection", Label: "Quote", Fields: []Field{
		required(text("quote", "quote")),
		str("author", "author"),
		str("authorRole", "author_role"),
	}},
	{Type: models.BlockMap, Object: "MapSection", Label: "Map", Fields: []Field{
		heading(),
		required(text("address", "address")),
		flt("latitude", "latitude"),
		flt("longitude", "longitude"),
	}},
	{Type: models.BlockBenefits, Object: "BenefitsSection", Label: "Benefits", Fields: []Field{
		heading(),
		required(featureItems("benefits", "benefits")),
	}},
}

// GenericObject is the GraphQL type name of the fallback section variant.
const GenericObject = "GenericSection"
