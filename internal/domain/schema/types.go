package schema

import "github.com/dalemusser/stratasite/internal/domain/models"

var factories = map[string]func() models.Document{
	Pages:              func() models.Document { return &models.Page{} },
	Media:              func() models.Document { return &models.Media{} },
	Jobs:               func() models.Document { return &models.Job{} },
	Projects:           func() models.Document { return &models.Project{} },
	Resources:          func() models.Document { return &models.Resource{} },
	Services:           func() models.Document { return &models.Service{} },
	Partners:           func() models.Document { return &models.Partner{} },
	Testimonials:       func() models.Document { return &models.Testimonial{} },
	Awards:             func() models.Document { return &models.Award{} },
	Solutions:          func() models.Document { return &models.Solution{} },
	Stats:              func() models.Document { return &models.Stat{} },
	Timeline:           func() models.Document { return &models.TimelineEntry{} },
	PopularSearches:    func() models.Document { return &models.PopularSearch{} },
	ContactSubmissions: func() models.Document { return &models.ContactSubmission{} },
	Resumes:            func() models.Document { return &models.Resume{} },
	Newsletter:         func() models.Document { return &models.NewsletterSubscriber{} },
}

// New returns an empty typed document for the collection.
func (c *Collection) New() models.Document {
	if f, ok := factories[c.Name]; ok {
		return f()
	}
	return nil
}
