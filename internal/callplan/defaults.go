package callplan

// DefaultStructure is the trial class script used when no structure is configured.
func DefaultStructure() CallStructure {
	return CallStructure{
		{
			ID: "stage_greeting", Name: "Greeting & Preparation", StartOffsetSeconds: 0, DurationSeconds: 180,
			Items: []ChecklistItem{
				{
					ID: "opening_greeting", Kind: KindAssertion,
					Content:  "Sapa dengan hangat dan perkenalkan diri dari Algonova",
					Guidance: "Tutor greets parent and child and introduces themselves with a reference to Algonova. A bare 'oke' or 'iya' does not count.",
					Keywords: Keywords{Required: []string{"halo", "selamat", "nama saya", "algonova"}, Forbidden: []string{"nanti", "tunggu"}},
				},
				{
					ID: "confirm_child_parent", Kind: KindAssertion,
					Content:  "Konfirmasi nama anak dan orang tua",
					Guidance: "Tutor explicitly confirms both the child's and the parent's name, e.g. 'betul dengan Mama...?', 'nama anaknya...?'.",
					Keywords: Keywords{Required: []string{"nama", "betul", "anak", "mama", "papa"}},
				},
				{
					ID: "confirm_companion", Kind: KindInquiry,
					Content:  "Konfirmasi bahwa orang tua akan mendampingi anak",
					Guidance: "Tutor checks that the parent will stay with the child during the session and gets an answer.",
					Keywords: Keywords{Required: []string{"dampingi", "mendampingi", "temani"}, Forbidden: []string{"mungkin"}},
				},
				{
					ID: "explain_stages", Kind: KindAssertion,
					Content:  "Jelaskan tahapan dan agenda trial class",
					Guidance: "Tutor outlines the agenda with sequence markers such as 'pertama', 'kedua', 'selanjutnya'.",
					Keywords: Keywords{Required: []string{"agenda", "tahapan", "pertama", "selanjutnya"}},
				},
			},
		},
		{
			ID: "stage_profiling", Name: "Profiling", StartOffsetSeconds: 180, DurationSeconds: 420,
			Items: []ChecklistItem{
				{
					ID: "profile_age", Kind: KindInquiry,
					Content:  "Konfirmasi usia dan tingkat sekolah anak",
					Guidance: "Age and school grade are asked or stated, e.g. 'umur berapa?', '8 tahun', 'kelas 3 SD'.",
					Keywords: Keywords{Required: []string{"umur", "usia", "tahun", "kelas"}},
				},
				{
					ID: "profile_interests", Kind: KindInquiry,
					Content:  "Tanyakan minat anak (game, aktivitas, pelajaran)",
					Guidance: "Tutor asks what the child likes and the answer names concrete games, activities or subjects.",
					Keywords: Keywords{Required: []string{"suka", "hobi", "game", "main"}},
				},
				{
					ID: "profile_learning_preferences", Kind: KindInquiry,
					Content:  "Tanyakan preferensi belajar anak",
					Guidance: "Tutor asks how the child prefers to learn (visual, hands-on, with friends, alone).",
				},
				{
					ID: "profile_hobbies_activities", Kind: KindInquiry,
					Content:  "Tanyakan aktivitas harian dan hobi anak",
					Guidance: "Tutor asks about the child's daily routine or hobbies outside school.",
					Keywords: Keywords{Required: []string{"hobi", "aktivitas", "kegiatan"}},
				},
			},
		},
		{
			ID: "stage_real_points", Name: "Real Points", StartOffsetSeconds: 600, DurationSeconds: 300,
			Items: []ChecklistItem{
				{
					ID: "explain_difference_from_school", Kind: KindAssertion,
					Content:  "Jelaskan perbedaan Algonova dengan sekolah",
					Guidance: "Tutor contrasts the course with regular school (project based, small groups, practical output).",
				},
				{
					ID: "explain_coding_design", Kind: KindAssertion,
					Content:  "Jelaskan secara sederhana apa itu coding atau design",
					Guidance: "Tutor gives a child friendly explanation of what coding or design is.",
				},
				{
					ID: "imagination_role", Kind: KindAssertion,
					Content:  "Ajak anak membayangkan menjadi gamedev/animator muda",
					Guidance: "Tutor invites the child to imagine being a young game developer or animator.",
				},
				{
					ID: "ask_what_to_create", Kind: KindInquiry,
					Content:  "Tanyakan anak ingin membuat apa",
					Guidance: "Tutor asks what the child would like to build and the child answers with an idea.",
				},
			},
		},
		{
			ID: "stage_profiling_summary", Name: "Profiling Summary", StartOffsetSeconds: 900, DurationSeconds: 180,
			Items: []ChecklistItem{
				{ID: "summary_child", Kind: KindAssertion, Content: "Ringkas profil anak berdasarkan jawaban",
					Guidance: "Tutor summarises what was learned about the child (age, interests, style)."},
				{ID: "summary_parent", Kind: KindAssertion, Content: "Ringkas sudut pandang dan harapan orang tua",
					Guidance: "Tutor restates the parent's expectations and concerns."},
				{ID: "recommend_course", Kind: KindAssertion, Content: "Rekomendasikan course yang paling sesuai",
					Guidance: "Tutor names a specific course and ties it to the profile."},
			},
		},
		{
			ID: "stage_practical", Name: "Practical Session", StartOffsetSeconds: 1080, DurationSeconds: 1200,
			Items: []ChecklistItem{
				{ID: "guide_tasks", Kind: KindAssertion, Content: "Pandu guide anak dalam menyelesaikan tugas",
					Guidance: "Tutor gives step by step instructions while the child works on the task."},
				{ID: "ask_what_learned", Kind: KindInquiry, Content: "Tanyakan apa yang anak pelajari",
					Guidance: "Tutor asks the child what they learned and the child answers."},
				{ID: "ask_parent_feedback", Kind: KindInquiry, Content: "Tanyakan feedback dari orang tua",
					Guidance: "Tutor asks the parent for feedback on the session and the parent responds."},
			},
		},
		{
			ID: "stage_presentation", Name: "Presentation", StartOffsetSeconds: 2280, DurationSeconds: 420,
			Items: []ChecklistItem{
				{ID: "introduce_school", Kind: KindAssertion, Content: "Perkenalkan Algonova sebagai sekolah internasional",
					Guidance: "Tutor presents the school, its international reach and teaching approach."},
				{ID: "share_achievements", Kind: KindAssertion, Content: "Ceritakan prestasi dan hasil karya murid",
					Guidance: "Tutor shares concrete student projects or competition results."},
				{ID: "explain_learning_path", Kind: KindAssertion, Content: "Jelaskan course lain dan learning path jangka panjang",
					Guidance: "Tutor explains the long term learning path and follow-up courses."},
			},
		},
		{
			ID: "stage_bridging", Name: "Bridging", StartOffsetSeconds: 2700, DurationSeconds: 300,
			Items: []ChecklistItem{
				{ID: "bridge_needs", Kind: KindAssertion, Content: "Hubungkan hasil profiling dengan kebutuhan anak",
					Guidance: "Tutor links the profiling answers to what the course offers the child."},
				{ID: "bridge_results", Kind: KindAssertion, Content: "Hubungkan hasil sesi praktik dengan potensi anak",
					Guidance: "Tutor uses the practical session result to show the child's potential."},
			},
		},
		{
			ID: "stage_negotiation", Name: "Negotiation", StartOffsetSeconds: 3000, DurationSeconds: 600,
			Items: []ChecklistItem{
				{ID: "recommend_class_type", Kind: KindAssertion, Content: "Rekomendasikan tipe kelas (Private / Premium / Group)",
					Guidance: "Tutor recommends a class format and explains why it fits."},
				{ID: "handle_objections", Kind: KindInquiry, Content: "Tanyakan keberatan dan jawab dengan empati",
					Guidance: "Tutor asks about objections (price, schedule) and answers them empathetically."},
				{ID: "clarify_policies", Kind: KindAssertion, Content: "Jelaskan refund, jadwal, dan harga dengan jelas",
					Guidance: "Tutor states refund policy, schedule and price explicitly."},
			},
		},
		{
			ID: "stage_closure", Name: "Closure", StartOffsetSeconds: 3600, DurationSeconds: 300,
			Items: []ChecklistItem{
				{ID: "close_call", Kind: KindAssertion, Content: "Akhiri panggilan dengan profesional",
					Guidance: "Tutor wraps up, thanks the family and says goodbye."},
				{ID: "closure_positive_if_paid", Kind: KindAssertion, Content: "Jika sudah bayar, sambut dengan hangat dan beri arahan selanjutnya",
					Guidance: "If the parent paid, tutor welcomes them and explains next steps."},
				{ID: "closure_if_not_paid", Kind: KindAssertion, Content: "Jika belum bayar, tetap tinggalkan kesan positif",
					Guidance: "If the parent did not pay, tutor still ends on a positive note and leaves the door open."},
			},
		},
	}
}
