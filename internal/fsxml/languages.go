package fsxml

// BuildLanguage emits a minimal phrase document for one language code. The
// panel keeps phrase management on disk, so this resolver never touches the
// store; it only satisfies the switch's lookup with a placeholder macro.
func BuildLanguage(lang string) *Document {
	if lang == "" {
		return NotFound()
	}

	return NewDocument(Section{
		Name: "languages",
		Language: &LanguageNode{
			Name:        lang,
			SayModule:   lang,
			SoundPrefix: "$${sounds_dir}/" + lang,
			Phrases: PhrasesNode{
				Macros: MacrosNode{
					Macro: []MacroNode{{
						Name: "default",
						Input: MacroInputNode{
							Pattern: "(.*)",
							Match: MacroMatchNode{
								Action: []PhraseActionNode{{Function: "speak-text", Data: "$1"}},
							},
						},
					}},
				},
			},
		},
	})
}
