package assessment

var seedAssessments = []Assessment{
	{
		ID:              "1",
		Title:           "Drone Technology Fundamentals",
		Slug:            "drone-technology-fundamentals",
		Description:     "Test your knowledge of basic drone components, principles, and operations.",
		DurationMinutes: 30,
		TotalQuestions:  20,
		PassingScore:    75,
		Level:           "beginner",
		RelatedCourses:  []string{"1"},
		Questions: []Question{
			{
				ID:   "q1",
				Text: "What is the main function of a drone's propellers?",
				Options: []string{
					"To provide lift and control direction",
					"To provide power to the motors",
					"To stabilize the drone in windy conditions",
					"To transmit signals to the controller",
				},
				CorrectOption: 0,
				Explanation:   "Propellers generate thrust that provides lift and allows for directional control of the drone.",
			},
			{
				ID:   "q2",
				Text: "Which component is primarily responsible for a drone's power supply?",
				Options: []string{
					"ESC (Electronic Speed Controller)",
					"Flight controller",
					"Battery",
					"Receiver",
				},
				CorrectOption: 2,
				Explanation:   "The battery is the primary power source for drones, supplying electricity to all components.",
			},
		},
	},
	{
		ID:              "2",
		Title:           "Aerial Mapping Certification",
		Slug:            "aerial-mapping-certification",
		Description:     "Professional assessment for drone mapping and surveying techniques.",
		DurationMinutes: 45,
		TotalQuestions:  30,
		PassingScore:    80,
		Level:           "intermediate",
		RelatedCourses:  []string{"2"},
	},
	{
		ID:              "3",
		Title:           "Drone Programming Proficiency",
		Slug:            "drone-programming-proficiency",
		Description:     "Advanced assessment on programming autonomous drone operations.",
		DurationMinutes: 60,
		TotalQuestions:  25,
		PassingScore:    85,
		Level:           "advanced",
		RelatedCourses:  []string{"3"},
	},
	{
		ID:              "4",
		Title:           "Regulatory Compliance Test",
		Slug:            "regulatory-compliance-test",
		Description:     "Comprehensive assessment on global drone regulations and compliance requirements.",
		DurationMinutes: 40,
		TotalQuestions:  35,
		PassingScore:    85,
		Level:           "intermediate",
		RelatedCourses:  []string{"4"},
	},
	{
		ID:              "5",
		Title:           "Aerial Photography Skills",
		Slug:            "aerial-photography-skills",
		Description:     "Test your knowledge and skills in drone photography and videography.",
		DurationMinutes: 50,
		TotalQuestions:  40,
		PassingScore:    75,
		Level:           "intermediate",
		RelatedCourses:  []string{"5"},
	},
}

// sharedQuestions is the flight operations bank used by assessments without their own questions.
var sharedQuestions = []Question{
	{
		ID:            "ops-1",
		Text:          "What is the maximum altitude allowed for recreational drone flights in most countries?",
		Options:       []string{"100 feet", "400 feet", "500 feet", "1000 feet"},
		CorrectOption: 1,
	},
	{
		ID:            "ops-2",
		Text:          "Which of the following is NOT typically a no-fly zone for drones?",
		Options:       []string{"Airports", "Military bases", "Public parks", "Critical infrastructure"},
		CorrectOption: 2,
	},
	{
		ID:            "ops-3",
		Text:          "What should you check before every drone flight?",
		Options:       []string{"Battery levels only", "Weather conditions only", "Propeller condition only", "All of the above"},
		CorrectOption: 3,
	},
	{
		ID:            "ops-4",
		Text:          "What is the primary purpose of geofencing in drone technology?",
		Options:       []string{"To improve flight stability", "To restrict flight in certain areas", "To enhance camera quality", "To extend battery life"},
		CorrectOption: 1,
	},
	{
		ID:            "ops-5",
		Text:          "Which programming language is commonly used for drone automation?",
		Options:       []string{"Java", "C++", "Python", "Ruby"},
		CorrectOption: 2,
	},
}
