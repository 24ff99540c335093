package apply

// Layout holds the selectors of one applicant portal. Side-navigation items
// and section anchors are keyed by stable element ids.
type Layout struct {
	// ApplyControls are tried in order; ApplyText is matched against every
	// button and link when none of them is present.
	ApplyControls []string
	ApplyText     string

	AlreadyApplied string
	Nav            map[Section]string
	Anchor         map[Section]string

	ContactInputs string

	QuestionGroup  string
	QuestionLabel  string
	RadioOption    string
	DropdownToggle string
	DropdownOption string

	Continue string
	Submit   string
}

// AmazonLayout is the amazon.jobs applicant portal.
func AmazonLayout() Layout {
	return Layout{
		ApplyControls: []string{"#apply-button", `a[href*="/applicant/jobs/"]`},
		ApplyText:     "Apply now",

		AlreadyApplied: "#already-applied-banner",
		Nav: map[Section]string{
			SectionContactInfo:     "#sideNavContactInformation",
			SectionWorkEligibility: "#sideNavWorkEligibility",
			SectionJobSpecific:     "#sideNavJobSpecificQuestions",
			SectionReviewSubmit:    "#sideNavReviewSubmit",
		},
		Anchor: map[Section]string{
			SectionContactInfo:     "#contactInformationSection",
			SectionWorkEligibility: "#workEligibilitySection",
			SectionJobSpecific:     "#jobSpecificQuestionsSection",
			SectionReviewSubmit:    "#reviewSubmitSection",
		},

		ContactInputs: "input[name]",

		QuestionGroup:  ".question-group",
		QuestionLabel:  "legend, label.question-label",
		RadioOption:    `input[type="radio"]`,
		DropdownToggle: `[role="combobox"], .dropdown-toggle`,
		DropdownOption: `[role="option"]`,

		Continue: `button[data-action="continue"]`,
		Submit:   `button[data-action="submit"]`,
	}
}
