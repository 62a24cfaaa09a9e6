package message

// DemoThreads returns the sample conversations, the viewer's own messages attributed to viewerID.
func DemoThreads(viewerID string) []Thread {
	return []Thread{
		{
			Contact: Contact{
				ID:          "1",
				Name:        "Mrs. Sarah Wilson",
				Role:        "Math Teacher",
				Avatar:      "https://images.pexels.com/photos/3783525/pexels-photo-3783525.jpeg?auto=compress&cs=tinysrgb&w=600",
				LastMessage: "Don't forget to submit your homework by Friday",
				Time:        "10:30 AM",
				Unread:      1,
			},
			Messages: []Message{
				{ID: "m1", SenderID: "1", Text: "Hello Siddh, I wanted to remind you about the math homework that's due this Friday.", Time: "10:15 AM", Read: true},
				{ID: "m2", SenderID: "1", Text: "Please make sure to complete all the exercises on pages 45-46.", Time: "10:20 AM", Read: true},
				{ID: "m3", SenderID: viewerID, Text: "Thank you Mrs. Wilson! I've almost finished it. Just have a few questions on problem #5.", Time: "10:25 AM", Read: true},
				{ID: "m4", SenderID: "1", Text: "Feel free to ask your questions here or come see me after class tomorrow.", Time: "10:30 AM"},
			},
		},
		{
			Contact: Contact{
				ID:          "2",
				Name:        "Mr. James Brown",
				Role:        "Science Teacher",
				Avatar:      "https://images.pexels.com/photos/5212665/pexels-photo-5212665.jpeg?auto=compress&cs=tinysrgb&w=600",
				LastMessage: "Great work on your project presentation",
				Time:        "Yesterday",
			},
			Messages: []Message{
				{ID: "m1", SenderID: "2", Text: "Siddh, I wanted to let you know that your science project presentation was excellent.", Time: "Yesterday", Read: true},
				{ID: "m2", SenderID: viewerID, Text: "Thank you Mr. Brown! I worked really hard on it.", Time: "Yesterday", Read: true},
				{
					ID: "m3", SenderID: "2", Time: "Yesterday", Read: true,
					Text: "It showed. Your research on renewable energy was thorough and your presentation was clear.",
					Attachment: &Attachment{
						Type: AttachmentDocument,
						URL:  "https://example.com/feedback.pdf",
						Name: "project_feedback.pdf",
					},
				},
			},
		},
		{
			Contact: Contact{
				ID:          "3",
				Name:        "Principal Davis",
				Role:        "School Principal",
				Avatar:      "https://images.pexels.com/photos/678783/pexels-photo-678783.jpeg?auto=compress&cs=tinysrgb&w=600",
				LastMessage: "Reminder: Parent-teacher meeting next week",
				Time:        "Mon",
				Unread:      2,
			},
			Messages: []Message{
				{ID: "m1", SenderID: "3", Text: "Dear Students and Parents,", Time: "Mon", Read: true},
				{ID: "m2", SenderID: "3", Text: "This is a reminder that we have scheduled the parent-teacher meeting for next week, on Thursday from 4-7 PM.", Time: "Mon", Read: true},
				{ID: "m3", SenderID: "3", Text: "Please make arrangements to attend as this is an important opportunity to discuss student progress.", Time: "Mon"},
				{
					ID: "m4", SenderID: "3", Time: "Mon",
					Text: "You can book your preferred time slot through the school portal.",
					Attachment: &Attachment{
						Type: AttachmentImage,
						URL:  "https://images.pexels.com/photos/3182834/pexels-photo-3182834.jpeg?auto=compress&cs=tinysrgb&w=600",
					},
				},
			},
		},
	}
}
