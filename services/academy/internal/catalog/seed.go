package catalog

// DefaultPlaylistID backs every seeded course.
const DefaultPlaylistID = "PLpEqiloJ_WR8NbCfIr3PSXqkXrHE3Qz5U"

const unsplash = "https://images.unsplash.com/"

var seedCourses = []Course{
	{
		ID:              "1",
		Title:           "Introduction to Drone Technology",
		Slug:            "intro-to-drone-technology",
		Description:     "Learn the fundamentals of drone technology, including components, flight principles, and basic operations.",
		ThumbnailURL:    unsplash + "photo-1506947411487-a56738267384?auto=format&fit=crop&w=2340&q=80",
		PlaylistID:      DefaultPlaylistID,
		DurationMinutes: 120,
		Level:           LevelBeginner,
		Topics:          []string{"Drone Basics", "Components", "Flight Principles"},
		EnrollmentCount: 1250,
		CompletionRate:  78,
		Rating:          4.7,
		CreatedAt:       "2023-01-15",
		UpdatedAt:       "2023-02-28",
	},
	{
		ID:              "2",
		Title:           "Drone Mapping and Surveying",
		Slug:            "drone-mapping-surveying",
		Description:     "Master the techniques of aerial mapping and surveying using drones for various industrial applications.",
		ThumbnailURL:    unsplash + "photo-1534996858221-380b92700493?auto=format&fit=crop&w=2671&q=80",
		PlaylistID:      DefaultPlaylistID,
		DurationMinutes: 180,
		Level:           LevelIntermediate,
		Topics:          []string{"Mapping", "Surveying", "GIS", "Photogrammetry"},
		EnrollmentCount: 980,
		CompletionRate:  65,
		Rating:          4.8,
		CreatedAt:       "2023-02-10",
		UpdatedAt:       "2023-03-15",
	},
	{
		ID:              "3",
		Title:           "Advanced Drone Programming",
		Slug:            "advanced-drone-programming",
		Description:     "Learn to program autonomous drone missions using FlytBase SDK and APIs for complex industrial operations.",
		ThumbnailURL:    unsplash + "photo-1580894894513-541e068a3e2b?auto=format&fit=crop&w=2340&q=80",
		PlaylistID:      DefaultPlaylistID,
		DurationMinutes: 240,
		Level:           LevelAdvanced,
		Topics:          []string{"Programming", "Automation", "SDK", "Algorithms"},
		EnrollmentCount: 650,
		CompletionRate:  52,
		Rating:          4.9,
		CreatedAt:       "2023-03-01",
		UpdatedAt:       "2023-04-12",
	},
	{
		ID:              "4",
		Title:           "Drone Regulations and Compliance",
		Slug:            "drone-regulations-compliance",
		Description:     "Understand the global regulatory landscape for commercial drone operations and compliance requirements.",
		ThumbnailURL:    unsplash + "photo-1465829235810-1f982c528e54?auto=format&fit=crop&w=2342&q=80",
		PlaylistID:      DefaultPlaylistID,
		DurationMinutes: 150,
		Level:           LevelIntermediate,
		Topics:          []string{"Regulations", "Compliance", "Certification", "Laws"},
		EnrollmentCount: 1120,
		CompletionRate:  85,
		Rating:          4.6,
		CreatedAt:       "2023-01-20",
		UpdatedAt:       "2023-03-05",
	},
	{
		ID:              "5",
		Title:           "Aerial Photography and Videography",
		Slug:            "aerial-photography-videography",
		Description:     "Master the art of capturing stunning aerial photos and videos using drones for creative and commercial purposes.",
		ThumbnailURL:    unsplash + "photo-1593108408993-58ee9c7825c5?auto=format&fit=crop&w=2341&q=80",
		PlaylistID:      DefaultPlaylistID,
		DurationMinutes: 210,
		Level:           LevelIntermediate,
		Topics:          []string{"Photography", "Videography", "Editing", "Composition"},
		EnrollmentCount: 1540,
		CompletionRate:  72,
		Rating:          4.8,
		CreatedAt:       "2023-02-15",
		UpdatedAt:       "2023-04-01",
	},
	{
		ID:              "6",
		Title:           "Drone Fleet Management",
		Slug:            "drone-fleet-management",
		Description:     "Learn strategies and tools for effectively managing multiple drones for large-scale industrial applications.",
		ThumbnailURL:    unsplash + "photo-1523149507604-c7cd8d869c9e?auto=format&fit=crop&w=2670&q=80",
		PlaylistID:      DefaultPlaylistID,
		DurationMinutes: 180,
		Level:           LevelAdvanced,
		Topics:          []string{"Fleet Management", "Scheduling", "Maintenance", "Operations"},
		EnrollmentCount: 730,
		CompletionRate:  58,
		Rating:          4.7,
		CreatedAt:       "2023-03-10",
		UpdatedAt:       "2023-04-15",
	},
}

var seedPaths = []LearningPath{
	{
		ID:              "1",
		Title:           "Drone Pilot Certification",
		Description:     "Comprehensive path to become a certified professional drone pilot.",
		CourseIDs:       []string{"1", "4"},
		AssessmentIDs:   []string{"1", "4"},
		DurationMinutes: 300,
		Level:           LevelBeginner,
	},
	{
		ID:              "2",
		Title:           "Aerial Mapping Specialist",
		Description:     "Specialized path for professionals focusing on mapping and surveying.",
		CourseIDs:       []string{"1", "2", "4"},
		AssessmentIDs:   []string{"1", "2", "4"},
		DurationMinutes: 450,
		Level:           LevelIntermediate,
	},
	{
		ID:              "3",
		Title:           "Drone Programming Expert",
		Description:     "Advanced path for developers working on autonomous drone systems.",
		CourseIDs:       []string{"1", "3", "6"},
		AssessmentIDs:   []string{"1", "3"},
		DurationMinutes: 540,
		Level:           LevelAdvanced,
	},
}

var defaultModules = []Module{
	{
		Number:      1,
		Title:       "Introduction to Drones",
		Duration:    "45 mins",
		Description: "Overview of drone technology and applications",
		VideoID:     "O-b1_T_1xGs",
		Lessons: []Lesson{
			{Title: "What are Drones?", Duration: "10 mins"},
			{Title: "History of Drone Technology", Duration: "15 mins"},
			{Title: "Types of Drones", Duration: "20 mins"},
		},
	},
	{
		Number:      2,
		Title:       "Basic Flight Controls",
		Duration:    "1 hour",
		Description: "Learn the fundamental controls for piloting a drone",
		VideoID:     "U1Z-iqLVHnk",
		Lessons: []Lesson{
			{Title: "Pre-Flight Checklist", Duration: "12 mins"},
			{Title: "Takeoff and Landing", Duration: "18 mins"},
			{Title: "Basic Maneuvers", Duration: "15 mins"},
			{Title: "Emergency Procedures", Duration: "15 mins"},
		},
	},
	{
		Number:      3,
		Title:       "Understanding Flight Dynamics",
		Duration:    "1.5 hours",
		Description: "Learn about drone physics and how they affect flight",
		VideoID:     "E9j8GtuQUHk",
		Lessons: []Lesson{
			{Title: "Principles of Flight", Duration: "20 mins"},
			{Title: "Weather Considerations", Duration: "25 mins"},
			{Title: "Flight Planning", Duration: "25 mins"},
		},
	},
}
