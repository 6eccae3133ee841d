package service

import "github.com/yanwarin/hospital-chatbot/internal/domain"

// Categories and the media catalog are defined at process start and never
// mutated. Trigger phrases only cover literally-listed languages; broader
// matching is delegated to the hosted classifier.
var defaultCategories = []domain.Category{
	{
		ID:          "hospital",
		Description: "general information and introduction of the hospital",
		Triggers: []string{
			"hospital", "about the hospital", "introduction", "who are you",
			"โรงพยาบาล", "เกี่ยวกับโรงพยาบาล", "แนะนำโรงพยาบาล",
		},
	},
	{
		ID:          "doctors",
		Description: "surgeons and medical staff",
		Triggers: []string{
			"doctor", "surgeon", "physician", "medical team",
			"หมอ", "แพทย์", "ศัลยแพทย์", "ทีมแพทย์",
		},
	},
	{
		ID:          "facilities",
		Description: "buildings, rooms, operating theatres and equipment",
		Triggers: []string{
			"facility", "facilities", "room", "ward", "operating",
			"ห้องพัก", "ห้องผ่าตัด", "สถานที่", "อาคาร",
		},
	},
	{
		ID:          "procedures",
		Description: "surgical procedures and treatments offered",
		Triggers: []string{
			"surgery", "procedure", "operation", "treatment", "srs", "ffs",
			"ผ่าตัด", "ศัลยกรรม", "การรักษา",
		},
	},
	{
		ID:          "accommodation",
		Description: "patient recovery accommodation and aftercare",
		Triggers: []string{
			"accommodation", "recovery room", "aftercare", "stay", "hotel",
			"ที่พัก", "พักฟื้น", "โรงแรม",
		},
	},
	{
		ID:          "contact",
		Description: "location, directions and contact channels",
		Triggers: []string{
			"contact", "location", "address", "map", "direction", "phone",
			"ติดต่อ", "ที่อยู่", "แผนที่", "เดินทาง",
		},
	},
}

var defaultCatalog = []domain.MediaItem{
	{
		URL:       "https://storage.googleapis.com/hospital-info-media/images/building-front.jpg",
		Title:     "Hospital main building",
		Category:  "hospital",
		Kind:      domain.MediaImage,
		Thumbnail: "https://storage.googleapis.com/hospital-info-media/images/building-front-thumb.jpg",
	},
	{
		URL:         "https://www.youtube.com/watch?v=hospital-introduction",
		Title:       "Hospital introduction tour",
		Category:    "hospital",
		Kind:        domain.MediaVideo,
		Description: "A short walkthrough of the hospital campus and services.",
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/reception.jpg",
		Title:    "Reception and lobby",
		Category: "hospital",
		Kind:     domain.MediaImage,
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/surgical-team.jpg",
		Title:    "Our surgical team",
		Category: "doctors",
		Kind:     domain.MediaImage,
	},
	{
		URL:         "https://www.youtube.com/watch?v=meet-the-surgeons",
		Title:       "Meet the surgeons",
		Category:    "doctors",
		Kind:        domain.MediaVideo,
		Description: "Lead surgeons introduce their specialties.",
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/operating-theatre.jpg",
		Title:    "Operating theatre",
		Category: "facilities",
		Kind:     domain.MediaImage,
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/patient-room.jpg",
		Title:    "Private patient room",
		Category: "facilities",
		Kind:     domain.MediaImage,
	},
	{
		URL:         "https://www.youtube.com/watch?v=procedure-overview",
		Title:       "Procedure overview",
		Category:    "procedures",
		Kind:        domain.MediaVideo,
		Description: "What to expect before, during and after surgery.",
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/consultation.jpg",
		Title:    "Pre-operative consultation",
		Category: "procedures",
		Kind:     domain.MediaImage,
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/recovery-residence.jpg",
		Title:    "Recovery residence",
		Category: "accommodation",
		Kind:     domain.MediaImage,
	},
	{
		URL:      "https://storage.googleapis.com/hospital-info-media/images/location-map.png",
		Title:    "How to find us",
		Category: "contact",
		Kind:     domain.MediaImage,
	},
}
