package echoweb

import (
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
)

const contactTemplate = "contact_request"

type (
	section struct {
		Heading string
		Body    string
		Items   []string
	}

	marketingPage struct {
		Title    string
		Lead     string
		Sections []section
	}

	// ContactRequest is the support page form.
	ContactRequest struct {
		Name    string `form:"name" validate:"notblank,max=100"`
		Email   string `form:"email" validate:"required,email"`
		Topic   string `form:"topic" validate:"max=100"`
		Message string `form:"message" validate:"notblank,max=2000"`
	}

	supportView struct {
		Page   marketingPage
		Form   ContactRequest
		Errors map[string]string
		Sent   bool
	}
)

var pages = map[string]marketingPage{
	"home": {
		Title: "Shri Vishwakarma Middle School",
		Lead:  "Tukoganj, Dewas (M.P.). Inspiring curiosity, fostering excellence and shaping future leaders.",
		Sections: []section{
			{Heading: "Why Choose Us", Items: []string{"Experienced teachers", "Modern facilities", "Arts, athletics and clubs for every student"}},
		},
	},
	"about": {
		Title: "About Us",
		Lead:  "Welcome to Shri Vishwakarma Middle School Tukoganj, Dewas (M.P.)",
		Sections: []section{
			{Heading: "Our Mission & Vision", Body: "We provide a safe and caring environment where every student can learn and grow."},
			{Heading: "Meet Our Board Members", Items: []string{
				"Rukmani Verma, Senior Director (founder)",
				"Atula Kanwar",
				"Apoorva Nag Rane",
				"Dr. Priyesh Vishwakarma",
			}},
			{Heading: "Ready to Join Our School?", Body: "Visit the admissions page to start your application."},
		},
	},
	"academics": {
		Title: "Academics",
		Lead:  "Inspiring Curiosity. Fostering Excellence. Shaping Future Leaders.",
		Sections: []section{
			{Heading: "Core Subjects", Items: []string{"Mathematics", "Science", "English Language Arts", "Social Studies"}},
			{Heading: "Elective Subjects", Items: []string{"Art", "Music", "Physical Education", "Technology & Coding", "Foreign Languages (Spanish/French)"}},
			{Heading: "Important Announcements", Items: []string{"Holiday Break: school closed during the winter holidays.", "Parent-Teacher Conferences: dates are shared with every family."}},
		},
	},
	"admissions": {
		Title: "Admissions",
		Lead:  "We're excited to welcome new students to our community!",
		Sections: []section{
			{Heading: "How to Apply", Items: []string{
				"Step 1: Complete the Online Application Form",
				"Step 2: Submit Required Documents (e.g., birth certificate, report cards)",
				"Step 3: Attend an Interview (Virtual or In-Person)",
				"Step 4: Receive Your Admission Decision",
			}},
			{Heading: "Financial Aid & Scholarships", Body: "Need-based aid and merit scholarships are available."},
			{Heading: "Contact Admissions", Items: []string{"admissions@schoolname.com", "(123) 456-7890"}},
		},
	},
	"arts": {
		Title: "Explore the Arts at Our School",
		Lead:  "Creativity, expression, and passion are at the heart of our arts programs.",
		Sections: []section{
			{Heading: "Performing Arts", Items: []string{"Music", "Dance", "Drama"}},
			{Heading: "Get Involved in the Arts", Body: "Join a club or an ensemble at the start of every term."},
		},
	},
	"athletics": {
		Title: "Welcome to Our School's Athletics Program",
		Lead:  "Get involved, stay active, and experience the thrill of competition!",
		Sections: []section{
			{Heading: "Our Sports Teams", Items: []string{"Football", "Basketball", "Track & Field"}},
			{Heading: "Our Achievements", Items: []string{"Regional Champions", "Track Excellence"}},
			{Heading: "Join the Athletic Program", Body: "Tryouts are held at the beginning of each season."},
		},
	},
	"student-life": {
		Title: "Student Life at Shri Vishwakarma Middle School",
		Lead:  "Discover the exciting opportunities, clubs, and experiences our students have every day!",
		Sections: []section{
			{Heading: "Clubs", Items: []string{"Student Government", "Science Club", "Photography Club", "Track & Field"}},
			{Heading: "Upcoming Events", Items: []string{"Back to School Bash: August 20, 2024", "Homecoming Dance"}},
		},
	},
	"support": {
		Title: "Support Our School",
		Lead:  "Your contributions help us create a better learning experience for all students!",
		Sections: []section{
			{Heading: "Ways You Can Support", Items: []string{"Make a Donation", "Volunteer", "Spread the Word"}},
		},
	},
}

func (s *Server) registerPages() {
	s.app.GET("/", s.page("home", ""))
	for _, slug := range []string{"about", "academics", "admissions", "arts", "athletics", "student-life"} {
		s.app.GET("/"+slug, s.page(slug, pages[slug].Title))
	}
	s.app.GET("/support", s.supportForm)
	s.app.POST("/support", s.contact)
}

func (s *Server) page(name, title string) echo.HandlerFunc {
	tmpl := "marketing"
	if name == "home" {
		tmpl = "home"
	}
	return func(ctx echo.Context) error {
		return s.render(ctx, http.StatusOK, tmpl, title, pages[name])
	}
}

func (s *Server) supportForm(ctx echo.Context) error {
	data := supportView{Page: pages["support"], Sent: ctx.QueryParam("sent") == "1"}
	return s.render(ctx, http.StatusOK, "support", "Support", data)
}

func (s *Server) contact(ctx echo.Context) error {
	var req ContactRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to ContactRequest")
	}
	req.Name = core.CleanString(req.Name)
	req.Email = core.CleanString(req.Email, true /* lower */)
	req.Topic = core.CleanString(req.Topic)

	if err := s.deps.Validate.Struct(req); err != nil {
		fldErrs, ok := s.fieldErrors(err)
		if !ok {
			return errors.Wrap(err, "validating ContactRequest")
		}
		data := supportView{Page: pages["support"], Form: req, Errors: fldErrs}
		return s.render(ctx, http.StatusBadRequest, "support", "Support", data)
	}

	subject := "Contact request"
	if req.Topic != "" {
		subject += ": " + req.Topic
	}
	s.deps.Mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: s.deps.Conf.ContactEmail}},
		ReplyTo:      &mail.Address{Name: req.Name, Address: req.Email},
		Subject:      subject,
		TemplateName: contactTemplate,
		TemplateData: req,
	})
	return ctx.Redirect(http.StatusSeeOther, "/support?sent=1")
}
