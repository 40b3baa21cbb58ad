package schema

// Collection names.
const (
	Pages              = "pages"
	Media              = "media"
	Jobs               = "jobs"
	Projects           = "projects"
	Resources          = "resources"
	Services           = "services"
	Partners           = "partners"
	Testimonials       = "testimonials"
	Awards             = "awards"
	Solutions          = "solutions"
	Stats              = "stats"
	Timeline           = "timeline"
	PopularSearches    = "popular_searches"
	ContactSubmissions = "contact_submissions"
	Resumes            = "resumes"
	Newsletter         = "newsletter"
	SiteSettings       = "site_settings"
)

func id() Field { return Field{Name: "id", Key: "_id", Kind: KindID} }

func str(name, key string) Field  { return Field{Name: name, Key: key, Kind: KindString} }
func text(name, key string) Field { return Field{Name: name, Key: key, Kind: KindText} }
func num(name, key string) Field  { return Field{Name: name, Key: key, Kind: KindInt} }
func flt(name, key string) Field  { return Field{Name: name, Key: key, Kind: KindFloat} }
func flag(name, key string) Field { return Field{Name: name, Key: key, Kind: KindBool} }
func at(name, key string) Field   { return Field{Name: name, Key: key, Kind: KindTime} }
func strs(name, key string) Field { return Field{Name: name, Key: key, Kind: KindStringList} }

func ref(name, key, target string) Field {
	return Field{Name: name, Key: key, Kind: KindRef, Target: target}
}

func refs(name, key, target string) Field {
	return Field{Name: name, Key: key, Kind: KindRefList, Target: target}
}

func object(name, key, typ string, fields ...Field) Field {
	return Field{Name: name, Key: key, Kind: KindObject, Object: typ, Fields: fields}
}

func objects(name, key, typ string, fields ...Field) Field {
	return Field{Name: name, Key: key, Kind: KindObjectList, Object: typ, Fields: fields}
}

func required(f Field) Field { f.Required = true; return f }

func enum(f Field, values ...string) Field { f.Enum = values; return f }

func timestamps() []Field {
	return []Field{at("createdAt", "created_at"), at("updatedAt", "updated_at")}
}

func fields(fs ...Field) []Field {
	return append(append([]Field{id()}, fs...), timestamps()...)
}

func seo() Field {
	return object("seo", "seo", "SEO",
		str("metaTitle", "meta_title"),
		text("metaDescription", "meta_description"),
		ref("ogImage", "og_image", Media),
		flag("noIndex", "no_index"),
	)
}

func publishing() []Field {
	return []Field{
		enum(str("status", "status"), "draft", "published"),
		at("publishedAt", "published_at"),
	}
}

// Collections is the registry in admin menu order.
var Collections = []*Collection{
	{
		Name: Pages, Type: "Page", Plural: "Pages", Label: "Pages",
		Public: true, HasSlug: true, DefaultSort: "-createdAt",
		Fields: fields(append([]Field{
			required(str("title", "title")),
			str("slug", "slug"),
			{Name: "sections", Key: "sections", Kind: KindSections},
			seo(),
		}, publishing()...)...),
		Admin: Views{
			List:   []string{"title", "slug", "status", "updatedAt"},
			Filter: []string{"status", "title"},
		},
	},
	{
		Name: Media, Type: "Media", Plural: "allMedia", Label: "Media",
		Public: true, DefaultSort: "-createdAt",
		Fields: fields(
			str("filename", "filename"),
			str("originalFilename", "original_filename"),
			str("mimeType", "mime_type"),
			num("fileSize", "file_size"),
			str("url", "url"),
			str("s3Key", "s3_key"),
			str("s3Bucket", "s3_bucket"),
			str("alt", "alt"),
			text("caption", "caption"),
			num("width", "width"),
			num("height", "height"),
			str("folder", "folder"),
			str("uploadedBy", "uploaded_by"),
			num("pageCount", "page_count"),
		),
		Admin: Views{
			List:   []string{"filename", "mimeType", "fileSize", "folder", "createdAt"},
			Filter: []string{"mimeType", "folder"},
		},
		Actions: []string{"delete", "bulk-delete"},
	},
	{
		Name: Jobs, Type: "Job", Plural: "Jobs", Label: "Jobs",
		Public: true, DefaultSort: "-postedDate",
		Fields: fields(
			required(str("title", "title")),
			str("department", "department"),
			str("location", "location"),
			enum(str("employmentType", "employment_type"), "full-time", "part-time", "contract", "internship"),
			text("description", "description"),
			strs("requirements", "requirements"),
			enum(required(str("status", "status")), "active", "closed"),
			at("postedDate", "posted_date"),
			num("order", "order"),
			ref("image", "image", Media),
		),
		Admin: Views{
			List:   []string{"title", "department", "location", "status", "postedDate"},
			Filter: []string{"status", "department", "location"},
		},
	},
	{
		Name: Projects, Type: "Project", Plural: "Projects", Label: "Projects",
		Public: true, HasSlug: true, DefaultSort: "order",
		Fields: fields(append([]Field{
			required(str("title", "title")),
			str("slug", "slug"),
			text("summary", "summary"),
			text("body", "body"),
			str("client", "client"),
			str("category", "category"),
			ref("featuredImage", "featured_image", Media),
			refs("gallery", "gallery", Media),
			refs("services", "services", Services),
			num("order", "order"),
		}, publishing()...)...),
		Admin: Views{
			List:   []string{"title", "client", "category", "status", "order"},
			Filter: []string{"status", "category"},
		},
	},
	{
		Name: Resources, Type: "Resource", Plural: "Resources", Label: "Resources",
		Public: true, HasSlug: true, DefaultSort: "order",
		Fields: fields(append([]Field{
			required(str("title", "title")),
			str("slug", "slug"),
			text("excerpt", "excerpt"),
			text("body", "body"),
			str("category", "category"),
			enum(str("resourceType", "resource_type"), "article", "guide", "whitepaper", "case-study", "video"),
			ref("coverImage", "cover_image", Media),
			ref("file", "file", Media),
			num("order", "order"),
		}, publishing()...)...),
		Admin: Views{
			List:   []string{"title", "resourceType", "category", "status", "order"},
			Filter: []string{"status", "resourceType", "category"},
		},
		Actions: []string{"clone"},
	},
	{
		Name: Services, Type: "Service", Plural: "Services", Label: "Services",
		Public: true, HasSlug: true, DefaultSort: "order",
		Fields: fields(
			required(str("title", "title")),
			str("slug", "slug"),
			text("summary", "summary"),
			text("description", "description"),
			ref("icon", "icon", Media),
			ref("image", "image", Media),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"title", "slug", "active", "order"}, Filter: []string{"active"}},
	},
	{
		Name: Partners, Type: "Partner", Plural: "Partners", Label: "Partners",
		Public: true, DefaultSort: "order",
		Fields: fields(
			required(str("name", "name")),
			ref("logo", "logo", Media),
			str("website", "website"),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"name", "website", "active", "order"}, Filter: []string{"active"}},
	},
	{
		Name: Testimonials, Type: "Testimonial", Plural: "Testimonials", Label: "Testimonials",
		Public: true, DefaultSort: "order",
		Fields: fields(
			required(str("author", "author")),
			str("role", "role"),
			str("company", "company"),
			required(text("quote", "quote")),
			ref("avatar", "avatar", Media),
			num("rating", "rating"),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"author", "company", "rating", "active", "order"}, Filter: []string{"active", "company"}},
	},
	{
		Name: Awards, Type: "Award", Plural: "Awards", Label: "Awards",
		Public: true, DefaultSort: "order",
		Fields: fields(
			required(str("title", "title")),
			str("issuer", "issuer"),
			num("year", "year"),
			text("description", "description"),
			ref("image", "image", Media),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"title", "issuer", "year", "active", "order"}, Filter: []string{"active", "year"}},
	},
	{
		Name: Solutions, Type: "Solution", Plural: "Solutions", Label: "Solutions",
		Public: true, HasSlug: true, DefaultSort: "order",
		Fields: fields(
			required(str("title", "title")),
			str("slug", "slug"),
			text("summary", "summary"),
			text("description", "description"),
			ref("icon", "icon", Media),
			ref("image", "image", Media),
			refs("services", "services", Services),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"title", "slug", "active", "order"}, Filter: []string{"active"}},
	},
	{
		Name: Stats, Type: "Stat", Plural: "Stats", Label: "Stats",
		Public: true, DefaultSort: "order",
		Fields: fields(
			required(str("label", "label")),
			required(str("value", "value")),
			str("suffix", "suffix"),
			ref("icon", "icon", Media),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"label", "value", "suffix", "active", "order"}, Filter: []string{"active"}},
	},
	{
		Name: Timeline, Type: "TimelineEntry", Plural: "Timeline", Label: "Timeline",
		Public: true, DefaultSort: "order",
		Fields: fields(
			required(str("year", "year")),
			required(str("title", "title")),
			text("description", "description"),
			ref("image", "image", Media),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"year", "title", "active", "order"}, Filter: []string{"active", "year"}},
	},
	{
		Name: PopularSearches, Type: "PopularSearch", Plural: "PopularSearches", Label: "Popular Searches",
		Public: true, DefaultSort: "order",
		Fields: fields(
			required(str("term", "term")),
			str("url", "url"),
			flag("active", "active"),
			num("order", "order"),
		),
		Admin: Views{List: []string{"term", "url", "active", "order"}, Filter: []string{"active"}},
	},
	{
		Name: ContactSubmissions, Type: "ContactSubmission", Plural: "ContactSubmissions", Label: "Contact Submissions",
		DefaultSort: "-createdAt",
		Fields: fields(
			required(str("name", "name")),
			required(str("email", "email")),
			required(str("phone", "phone")),
			required(str("interestedField", "interested_field")),
			text("message", "message"),
			enum(str("status", "status"), "new", "read", "archived"),
			str("ipAddress", "ip_address"),
			str("userAgent", "user_agent"),
		),
		Admin: Views{
			List:   []string{"name", "email", "interestedField", "status", "createdAt"},
			Filter: []string{"status", "interestedField", "email"},
			Hidden: []string{"userAgent"},
		},
	},
	{
		Name: Resumes, Type: "Resume", Plural: "Resumes", Label: "Resumes",
		DefaultSort: "-createdAt",
		Fields: fields(
			required(str("fullName", "full_name")),
			required(str("number", "number")),
			str("email", "email"),
			ref("jobId", "job_id", Jobs),
			required(ref("resumeUpload", "resume_upload", Media)),
			enum(str("status", "status"), "new", "reviewed", "archived"),
			str("ipAddress", "ip_address"),
		),
		Admin: Views{
			List:   []string{"fullName", "number", "jobId", "status", "createdAt"},
			Filter: []string{"status", "jobId"},
		},
	},
	{
		Name: Newsletter, Type: "NewsletterSubscriber", Plural: "NewsletterSubscribers", Label: "Newsletter",
		DefaultSort: "-createdAt",
		Fields: fields(
			required(str("email", "email")),
			str("name", "name"),
			str("source", "source"),
			enum(str("status", "status"), "subscribed", "unsubscribed"),
			at("subscribedAt", "subscribed_at"),
			at("unsubscribedAt", "unsubscribed_at"),
		),
		Admin: Views{
			List:   []string{"email", "name", "status", "subscribedAt"},
			Filter: []string{"status", "source"},
		},
	},
}

// Settings describes the SiteSettings singleton. It is not in Collections
// because it has no list/get-by-id surface.
var Settings = &Collection{
	Name: SiteSettings, Type: "SiteSettings", Label: "Site Settings", Public: true,
	Fields: []Field{
		str("siteName", "site_name"),
		str("tagline", "tagline"),
		ref("logo", "logo", Media),
		ref("favicon", "favicon", Media),
		navItems("nav", "nav"),
		object("footer", "footer", "Footer",
			text("about", "about"),
			objects("columns", "columns", "FooterColumn",
				str("heading", "heading"),
				navLinks("links", "links"),
			),
			objects("socials", "socials", "SocialLink",
				str("platform", "platform"),
				str("url", "url"),
				Field{Name: "icon", Key: "icon", Kind: KindIcon, Target: Media},
			),
			str("copyright", "copyright"),
		),
		object("contact", "contact", "ContactInfo",
			str("email", "email"),
			str("phone", "phone"),
			text("address", "address"),
			str("notifyEmail", "notify_email"),
			str("hrEmail", "hr_email"),
		),
		seo(),
		object("analytics", "analytics", "Analytics",
			str("googleTagId", "google_tag_id"),
			str("plausibleDomain", "plausible_domain"),
		),
		at("updatedAt", "updated_at"),
	},
}

func navLinks(name, key string) Field {
	return objects(name, key, "NavLink", str("label", "label"), str("url", "url"))
}

func navItems(name, key string) Field {
	return objects(name, key, "NavItem",
		str("label", "label"),
		str("url", "url"),
		navLinks("children", "children"),
	)
}
