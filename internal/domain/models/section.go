// internal/domain/models/section.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// BlockType is the discriminator stored on every page section.
type BlockType string

// Known block types. The list is closed: anything else read from storage
// decodes as a GenericSection.
const (
	BlockHero             BlockType = "heroSection"
	BlockRichText         BlockType = "richTextSection"
	BlockFAQ              BlockType = "faqSection"
	BlockJobList          BlockType = "jobListSection"
	BlockTimeline         BlockType = "timelineSection"
	BlockResourceGallery  BlockType = "resourceGallerySection"
	BlockServiceGrid      BlockType = "serviceGridSection"
	BlockSolutionGrid     BlockType = "solutionGridSection"
	BlockProjectShowcase  BlockType = "projectShowcaseSection"
	BlockPartnerLogos     BlockType = "partnerLogosSection"
	BlockTestimonials     BlockType = "testimonialSection"
	BlockAwards           BlockType = "awardsSection"
	BlockStats            BlockType = "statsSection"
	BlockCTA              BlockType = "ctaSection"
	BlockImageText        BlockType = "imageTextSection"
	BlockVideo            BlockType = "videoSection"
	BlockGallery          BlockType = "gallerySection"
	BlockContactForm      BlockType = "contactFormSection"
	BlockNewsletter       BlockType = "newsletterSection"
	BlockTeam             BlockType = "teamSection"
	BlockFeatureList      BlockType = "featureListSection"
	BlockProcessSteps     BlockType = "processStepsSection"
	BlockQuote            BlockType = "quoteSection"
	BlockMap              BlockType = "mapSection"
	BlockBenefits         BlockType = "benefitsSection"

	// BlockGeneric is never stored; it names the fallback variant.
	BlockGeneric BlockType = "genericSection"
)

// AllBlockTypes lists the closed enumeration in display order.
var AllBlockTypes = []BlockType{
	BlockHero, BlockRichText, BlockFAQ, BlockJobList, BlockTimeline,
	BlockResourceGallery, BlockServiceGrid, BlockSolutionGrid, BlockProjectShowcase,
	BlockPartnerLogos, BlockTestimonials, BlockAwards, BlockStats, BlockCTA,
	BlockImageText, BlockVideo, BlockGallery, BlockContactForm, BlockNewsletter,
	BlockTeam, BlockFeatureList, BlockProcessSteps, BlockQuote, BlockMap, BlockBenefits,
}

// ResolveBlockType maps a stored tag to its BlockType. Unknown tags resolve
// to BlockGeneric and ok is false.
func ResolveBlockType(tag string) (bt BlockType, ok bool) {
	switch BlockType(tag) {
	case BlockHero, BlockRichText, BlockFAQ, BlockJobList, BlockTimeline,
		BlockResourceGallery, BlockServiceGrid, BlockSolutionGrid, BlockProjectShowcase,
		BlockPartnerLogos, BlockTestimonials, BlockAwards, BlockStats, BlockCTA,
		BlockImageText, BlockVideo, BlockGallery, BlockContactForm, BlockNewsletter,
		BlockTeam, BlockFeatureList, BlockProcessSteps, BlockQuote, BlockMap, BlockBenefits:
		return BlockType(tag), true
	default:
		return BlockGeneric, false
	}
}

// Section is one block in a page's ordered section list. The interface is
// sealed: only the variants in this package implement it.
type Section interface {
	BlockType() BlockType
	meta() *SectionMeta
}

// SectionMeta holds the fields every variant shares. Extra keeps keys that the
// variant does not declare so they survive a read-modify-write cycle.
type SectionMeta struct {
	ID        string         `bson:"id,omitempty" json:"id,omitempty"`
	BlockName string         `bson:"block_name,omitempty" json:"blockName,omitempty"`
	Extra     map[string]any `bson:"-" json:"-"`
}

func (m *SectionMeta) meta() *SectionMeta { return m }

// NewSection returns an empty variant for bt, or nil for BlockGeneric and
// unknown values.
func NewSection(bt BlockType) Section {
	switch bt {
	case BlockHero:
		return &HeroSection{}
	case BlockRichText:
		return &RichTextSection{}
	case BlockFAQ:
		return &FAQSection{}
	case BlockJobList:
		return &JobListSection{}
	case BlockTimeline:
		return &TimelineSection{}
	case BlockResourceGallery:
		return &ResourceGallerySection{}
	case BlockServiceGrid:
		return &ServiceGridSection{}
	case BlockSolutionGrid:
		return &SolutionGridSection{}
	case BlockProjectShowcase:
		return &ProjectShowcaseSection{}
	case BlockPartnerLogos:
		return &PartnerLogosSection{}
	case BlockTestimonials:
		return &TestimonialSection{}
	case BlockAwards:
		return &AwardsSection{}
	case BlockStats:
		return &StatsSection{}
	case BlockCTA:
		return &CTASection{}
	case BlockImageText:
		return &ImageTextSection{}
	case BlockVideo:
		return &VideoSection{}
	case BlockGallery:
		return &GallerySection{}
	case BlockContactForm:
		return &ContactFormSection{}
	case BlockNewsletter:
		return &NewsletterSection{}
	case BlockTeam:
		return &TeamSection{}
	case BlockFeatureList:
		return &FeatureListSection{}
	case BlockProcessSteps:
		return &ProcessStepsSection{}
	case BlockQuote:
		return &QuoteSection{}
	case BlockMap:
		return &MapSection{}
	case BlockBenefits:
		return &BenefitsSection{}
	}
	return nil
}

// GenericSection is the fallback variant for tags the code does not know.
// Tag holds the stored discriminator verbatim.
type GenericSection struct {
	SectionMeta `bson:",inline"`
	Tag         string
	Fields      map[string]any
}

func (*GenericSection) BlockType() BlockType { return BlockGeneric }

// ---- shared item shapes ----

type FAQItem struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

type TeamMember struct {
	Name  string              `bson:"name" json:"name"`
	Role  string              `bson:"role,omitempty" json:"role,omitempty"`
	Photo *primitive.ObjectID `bson:"photo,omitempty" json:"photo,omitempty"`
	Bio   string              `bson:"bio,omitempty" json:"bio,omitempty"`
}

// FeatureItem is used by both featureListSection and benefitsSection.
type FeatureItem struct {
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Icon        *primitive.ObjectID `bson:"icon,omitempty" json:"icon,omitempty"`
}

type StepItem struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// ---- variants ----

type HeroSection struct {
	SectionMeta     `bson:",inline"`
	Heading         string              `bson:"heading" json:"heading"`
	Subheading      string              `bson:"subheading,omitempty" json:"subheading,omitempty"`
	BackgroundImage *primitive.ObjectID `bson:"background_image,omitempty" json:"backgroundImage,omitempty"`
	CTALabel        string              `bson:"cta_label,omitempty" json:"ctaLabel,omitempty"`
	CTALink         string              `bson:"cta_link,omitempty" json:"ctaLink,omitempty"`
}

type RichTextSection struct {
	SectionMeta `bson:",inline"`
	Heading     string `bson:"heading,omitempty" json:"heading,omitempty"`
	Body        string `bson:"body" json:"body"`
}

type FAQSection struct {
	SectionMeta `bson:",inline"`
	Heading     string    `bson:"heading,omitempty" json:"heading,omitempty"`
	FAQs        []FAQItem `bson:"faqs" json:"faqs"`
}

type JobListSection struct {
	SectionMeta   `bson:",inline"`
	Heading       string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Intro         string               `bson:"intro,omitempty" json:"intro,omitempty"`
	Jobs          []primitive.ObjectID `bson:"jobs,omitempty" json:"jobs,omitempty"`
	ShowAllActive bool                 `bson:"show_all_active" json:"showAllActive"`
}

type TimelineSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Entries     []primitive.ObjectID `bson:"entries,omitempty" json:"entries,omitempty"`
}

type ResourceGallerySection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Resources   []primitive.ObjectID `bson:"resources,omitempty" json:"resources,omitempty"`
}

type ServiceGridSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Intro       string               `bson:"intro,omitempty" json:"intro,omitempty"`
	Services    []primitive.ObjectID `bson:"services,omitempty" json:"services,omitempty"`
}

type SolutionGridSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Intro       string               `bson:"intro,omitempty" json:"intro,omitempty"`
	Solutions   []primitive.ObjectID `bson:"solutions,omitempty" json:"solutions,omitempty"`
}

type ProjectShowcaseSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Projects    []primitive.ObjectID `bson:"projects,omitempty" json:"projects,omitempty"`
}

type PartnerLogosSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Partners    []primitive.ObjectID `bson:"partners,omitempty" json:"partners,omitempty"`
}

type TestimonialSection struct {
	SectionMeta  `bson:",inline"`
	Heading      string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Testimonials []primitive.ObjectID `bson:"testimonials,omitempty" json:"testimonials,omitempty"`
}

type AwardsSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Awards      []primitive.ObjectID `bson:"awards,omitempty" json:"awards,omitempty"`
}

type StatsSection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Stats       []primitive.ObjectID `bson:"stats,omitempty" json:"stats,omitempty"`
}

type CTASection struct {
	SectionMeta     `bson:",inline"`
	Heading         string              `bson:"heading" json:"heading"`
	Body            string              `bson:"body,omitempty" json:"body,omitempty"`
	ButtonLabel     string              `bson:"button_label,omitempty" json:"buttonLabel,omitempty"`
	ButtonLink      string              `bson:"button_link,omitempty" json:"buttonLink,omitempty"`
	BackgroundImage *primitive.ObjectID `bson:"background_image,omitempty" json:"backgroundImage,omitempty"`
}

type ImageTextSection struct {
	SectionMeta   `bson:",inline"`
	Heading       string              `bson:"heading,omitempty" json:"heading,omitempty"`
	Body          string              `bson:"body,omitempty" json:"body,omitempty"`
	Image         *primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
	ImagePosition string              `bson:"image_position,omitempty" json:"imagePosition,omitempty"`
}

type VideoSection struct {
	SectionMeta `bson:",inline"`
	Heading     string              `bson:"heading,omitempty" json:"heading,omitempty"`
	VideoURL    string              `bson:"video_url" json:"videoUrl"`
	Poster      *primitive.ObjectID `bson:"poster,omitempty" json:"poster,omitempty"`
}

type GallerySection struct {
	SectionMeta `bson:",inline"`
	Heading     string               `bson:"heading,omitempty" json:"heading,omitempty"`
	Images      []primitive.ObjectID `bson:"images,omitempty" json:"images,omitempty"`
}

type ContactFormSection struct {
	SectionMeta     `bson:",inline"`
	Heading         string   `bson:"heading,omitempty" json:"heading,omitempty"`
	Intro           string   `bson:"intro,omitempty" json:"intro,omitempty"`
	InterestOptions []string `bson:"interest_options,omitempty" json:"interestOptions,omitempty"`
}

type NewsletterSection struct {
	SectionMeta `bson:",inline"`
	Heading     string `bson:"heading,omitempty" json:"heading,omitempty"`
	Intro       string `bson:"intro,omitempty" json:"intro,omitempty"`
	Source      string `bson:"source,omitempty" json:"source,omitempty"`
}

type TeamSection struct {
	SectionMeta `bson:",inline"`
	Heading     string       `bson:"heading,omitempty" json:"heading,omitempty"`
	Members     []TeamMember `bson:"members" json:"members"`
}

type FeatureListSection struct {
	SectionMeta `bson:",inline"`
	Heading     string        `bson:"heading,omitempty" json:"heading,omitempty"`
	Features    []FeatureItem `bson:"features" json:"features"`
}

type ProcessStepsSection struct {
	SectionMeta `bson:",inline"`
	Heading     string     `bson:"heading,omitempty" json:"heading,omitempty"`
	Steps       []StepItem `bson:"steps" json:"steps"`
}

type QuoteSection struct {
	SectionMeta `bson:",inline"`
	Quote       string `bson:"quote" json:"quote"`
	Author      string `bson:"author,omitempty" json:"author,omitempty"`
	AuthorRole  string `bson:"author_role,omitempty" json:"authorRole,omitempty"`
}

type MapSection struct {
	SectionMeta `bson:",inline"`
	Heading     string  `bson:"heading,omitempty" json:"heading,omitempty"`
	Address     string  `bson:"address" json:"address"`
	Latitude    float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

type BenefitsSection struct {
	SectionMeta `bson:",inline"`
	Heading     string        `bson:"heading,omitempty" json:"heading,omitempty"`
	Benefits    []FeatureItem `bson:"benefits" json:"benefits"`
}

func (*HeroSection) BlockType() BlockType            { return BlockHero }
func (*RichTextSection) BlockType() BlockType        { return BlockRichText }
func (*FAQSection) BlockType() BlockType             { return BlockFAQ }
func (*JobListSection) BlockType() BlockType         { return BlockJobList }
func (*TimelineSection) BlockType() BlockType        { return BlockTimeline }
func (*ResourceGallerySection) BlockType() BlockType { return BlockResourceGallery }
func (*ServiceGridSection) BlockType() BlockType     { return BlockServiceGrid }
func (*SolutionGridSection) BlockType() BlockType    { return BlockSolutionGrid }
func (*ProjectShowcaseSection) BlockType() BlockType { return BlockProjectShowcase }
func (*PartnerLogosSection) BlockType() BlockType    { return BlockPartnerLogos }
func (*TestimonialSection) BlockType() BlockType     { return BlockTestimonials }
func (*AwardsSection) BlockType() BlockType          { return BlockAwards }
func (*StatsSection) BlockType() BlockType           { return BlockStats }
func (*CTASection) BlockType() BlockType             { return BlockCTA }
func (*ImageTextSection) BlockType() BlockType       { return BlockImageText }
func (*VideoSection) BlockType() BlockType           { return BlockVideo }
func (*GallerySection) BlockType() BlockType         { return BlockGallery }
func (*ContactFormSection) BlockType() BlockType     { return BlockContactForm }
func (*NewsletterSection) BlockType() BlockType      { return BlockNewsletter }
func (*TeamSection) BlockType() BlockType            { return BlockTeam }
func (*FeatureListSection) BlockType() BlockType     { return BlockFeatureList }
func (*ProcessStepsSection) BlockType() BlockType    { return BlockProcessSteps }
func (*QuoteSection) BlockType() BlockType           { return BlockQuote }
func (*MapSection) BlockType() BlockType             { return BlockMap }
func (*BenefitsSection) BlockType() BlockType        { return BlockBenefits }
