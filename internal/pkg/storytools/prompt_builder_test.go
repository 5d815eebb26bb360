package storytools

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"papaya/internal/model/movie"
)

func TestElementToken(t *testing.T) {
	Convey("ElementToken 生成稳定的元素 token", t, func() {
		So(ElementToken("Vera"), ShouldEqual, "element_vera")
		So(ElementToken("Detective Marlowe"), ShouldEqual, "element_detective-marlowe")
		So(ElementToken("Neo-Tokyo Rooftop #3"), ShouldEqual, "element_neo-tokyo-rooftop-3")

		Convey("同一名称永远得到同一 token", func() {
			So(ElementToken("Vera"), ShouldEqual, ElementToken("Vera"))
		})
	})
}

func TestPromptBuilder_Build(t *testing.T) {
	Convey("PromptBuilder.Build 拼装生成 prompt", t, func() {
		builder := NewPromptBuilder()
		style := &movie.StyleBible{
			StyleString:    "Shot on 35mm film, desaturated palette, heavy grain",
			NegativePrompt: "cartoon, low quality, watermark",
		}
		characters := []PromptCharacter{
			{ID: "c1", Name: "Vera", VisualDescription: "a woman in a red trench coat", VoiceProfile: "husky", HasReferenceImages: true},
			{ID: "c2", Name: "Marlowe", VisualDescription: "a tired detective in a gray suit", VoiceProfile: "gravelly"},
		}

		Convey("块顺序固定：运镜 → 主体 → 动作 → 环境 → 光线 → 风格", func() {
			prompt, _ := builder.Build(&PromptInput{
				ShotType:    "wide",
				CameraText:  "Aerial establishing shot, camera drifting high above the scene",
				Subject:     "Marlowe, a tired detective in a gray suit",
				Action:      "walks into the rain",
				Environment: "a neon-lit alley, night",
				Lighting:    "wet streets reflecting neon",
			}, characters, style)

			So(prompt, ShouldStartWith, "Wide shot. Aerial establishing shot")
			So(strings.Index(prompt, "Marlowe"), ShouldBeLessThan, strings.Index(prompt, "walks into the rain"))
			So(strings.Index(prompt, "walks into the rain"), ShouldBeLessThan, strings.Index(prompt, "neon-lit alley"))
			So(strings.Index(prompt, "neon-lit alley"), ShouldBeLessThan, strings.Index(prompt, "wet streets"))
			So(prompt, ShouldEndWith, "Shot on 35mm film, desaturated palette, heavy grain.")
		})

		Convey("非空块以 '. ' 连接且不产生双句号", func() {
			prompt, _ := builder.Build(&PromptInput{
				CameraText: "Static medium shot, locked-off camera.",
				Subject:    "an empty chair",
				Action:     "dust drifts in the light.",
			}, nil, nil)
			So(prompt, ShouldEqual, "Static medium shot, locked-off camera. an empty chair. dust drifts in the light.")
			So(prompt, ShouldNotContainSubstring, "..")
		})

		Convey("有参考图的角色替换为元素 token", func() {
			prompt, _ := builder.Build(&PromptInput{
				CameraText: "Dolly push-in toward the subject",
				Subject:    "Vera, a woman in a red trench coat and Marlowe, a tired detective in a gray suit",
				Action:     "they argue",
			}, characters, style)

			So(prompt, ShouldContainSubstring, "Vera (element_vera)")
			So(prompt, ShouldNotContainSubstring, "red trench coat")
			// Marlowe 没有参考图，保留内联外观描述
			So(prompt, ShouldContainSubstring, "Marlowe, a tired detective in a gray suit")
			So(prompt, ShouldNotContainSubstring, "element_marlowe")
		})

		Convey("对白块格式：[角色名, 情绪 voice]: \"台词\"", func() {
			prompt, _ := builder.Build(&PromptInput{
				CameraText:      "Over-the-shoulder shot framing the conversation",
				Subject:         "Marlowe, a tired detective in a gray suit",
				Action:          "leans forward",
				IncludeDialogue: true,
				Dialogue: &movie.ShotDialogue{
					CharacterID:   "c2",
					CharacterName: "Marlowe",
					Line:          "You knew all along.",
					Emotion:       "bitter",
				},
			}, characters, style)
			So(prompt, ShouldContainSubstring, `[Marlowe, bitter voice]: "You knew all along."`)
		})

		Convey("对白情绪缺失时回退到角色音色", func() {
			prompt, _ := builder.Build(&PromptInput{
				CameraText:      "Static close-up, locked-off camera holding on the subject",
				Subject:         "Vera, a woman in a red trench coat",
				Action:          "stares",
				IncludeDialogue: true,
				Dialogue: &movie.ShotDialogue{
					CharacterID:   "c1",
					CharacterName: "Vera",
					Line:          "Goodbye.",
				},
			}, characters, style)
			So(prompt, ShouldContainSubstring, `[Vera, husky voice]: "Goodbye."`)
		})

		Convey("IncludeDialogue 为 false 时不写对白块", func() {
			prompt, _ := builder.Build(&PromptInput{
				CameraText: "Static close-up, locked-off camera holding on the subject",
				Subject:    "Vera, a woman in a red trench coat",
				Action:     "stares",
				Dialogue: &movie.ShotDialogue{
					CharacterName: "Vera",
					Line:          "Goodbye.",
				},
			}, characters, style)
			So(prompt, ShouldNotContainSubstring, "Goodbye")
		})

		Convey("场景元素名附加在环境块之后", func() {
			prompt, _ := builder.Build(&PromptInput{
				CameraText:       "Panning shot sweeping across the scene, revealing the environment",
				Subject:          "the alley",
				Action:           "rain falls",
				Environment:      "a neon-lit alley, night",
				SceneElementName: "element_neon-alley",
			}, nil, nil)
			So(prompt, ShouldContainSubstring, "a neon-lit alley, night (element_neon-alley)")
		})

		Convey("负面 prompt 合并风格圣经与运镜/类型专属排除项并去重", func() {
			_, negative := builder.Build(&PromptInput{
				CameraText: "360-degree orbit circling the subject",
				Subject:    "Vera, a woman in a red trench coat",
				Action:     "turns slowly",
				MovementID: OrbitMovementID,
				GenreID:    "noir",
			}, characters, style)

			So(negative, ShouldContainSubstring, "cartoon")
			So(negative, ShouldContainSubstring, "warped geometry")
			So(negative, ShouldContainSubstring, "oversaturated colors")
			// 片段不重复
			So(strings.Count(negative, "low quality"), ShouldEqual, 1)
		})

		Convey("无风格圣经、无专属排除项时负面 prompt 为空", func() {
			_, negative := builder.Build(&PromptInput{
				CameraText: "Static medium shot, locked-off camera",
				Subject:    "an empty chair",
				Action:     "nothing moves",
			}, nil, nil)
			So(negative, ShouldBeEmpty)
		})
	})
}
