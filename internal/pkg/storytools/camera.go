package storytools

import (
	"regexp"
)

// compoundedSyntax 长镜头（>5 秒）的运镜展开句式表
// 短镜头直接用目录里的静态句式即可；长镜头如果不显式描述时间上的展开过程，
// 下游视频模型会自行脑补出第二个多余的运镜。这里按运镜ID给出"随时间展开"的改写。
var compoundedSyntax = map[string]string{
	"aerial_establish": "Aerial establishing shot that begins high above the scene and drifts slowly downward and forward, the layout of the location gradually resolving beneath the camera",
	"slow_push_establish": "Wide establishing shot that begins at a distance and pushes forward at a slow, constant pace, the scene gradually filling the frame as details emerge",
	"crane_down": "Crane shot that begins high above the scene and descends slowly and steadily, settling at eye level as the subject gradually comes into view",
	"pan_reveal": "Panning shot that begins on the edge of the scene and sweeps slowly across it, each part of the environment revealed in turn until the full space is established",
	"dolly_push_in": "Dolly shot that begins at a distance and slowly pushes forward, gradually tightening on the subject until their expression fills the frame",
	"dolly_pull_back": "Dolly shot that begins close on the subject and slowly pulls back, gradually revealing more and more of the surrounding space",
	"static_close_up": "Static close-up held on the subject for the full duration, micro-expressions slowly shifting across their face as the moment stretches out",
	"static_medium": "Static medium shot held for the full duration, the subject moving naturally within the locked frame as the scene slowly unfolds",
	"over_the_shoulder": "Over-the-shoulder shot that holds the conversation, slowly easing closer over the speaker's shoulder as the exchange develops",
	"shot_reverse_shot": "Shot-reverse-shot coverage that alternates between the speakers at a measured pace, each cut holding slightly longer as the exchange intensifies",
	"rack_focus": "Rack focus that begins sharp on the foreground and slowly shifts to the background, attention gradually migrating between the two planes",
	"handheld_follow": "Handheld camera that follows the subject continuously, drifting and correcting as they move, the unsteady frame gradually closing the distance",
	"tracking_lateral": "Lateral tracking shot that moves alongside the subject at a steady pace, the background slowly scrolling past for the full duration",
	"crash_zoom": "Shot that begins wide and holds, then zooms in hard on the subject, settling into a slow creep once the subject fills the frame",
	"whip_pan": "Shot that holds on the first subject, whip pans to the second, then settles into a slow drift as the new framing stabilizes",
	OrbitMovementID: "360-degree orbit that circles the subject at a slow, constant speed, the background continuously wheeling past as the full rotation completes",
	"crane_up_away": "Crane shot that begins at eye level and rises slowly up and away, the scene gradually shrinking below as the wider world comes into view",
	"dolly_out_reveal": "Dolly shot that begins tight on the subject and slowly pulls out, new context gradually entering the frame around them",
}

// temporalMarkers 判断句式是否已含时间性措辞
var temporalMarkers = regexp.MustCompile(`(?i)\b(slow|gradual|stead)`)

// CompoundCameraForDuration 按镜头时长返回运镜描述
// duration ≤ 5 秒：原样返回静态句式
// duration > 5 秒：返回展开句式表中的改写；表中没有的运镜ID，
// 在句式尚无时间性措辞时加 "Slowly, " 前缀，否则原样返回
func CompoundCameraForDuration(syntax, movementID string, duration int) string {
	if duration <= 5 {
		return syntax
	}
	if compounded, ok := compoundedSyntax[movementID]; ok {
		return compounded
	}
	if temporalMarkers.MatchString(syntax) {
		return syntax
	}
	return "Slowly, " + syntax
}
