package catalog

// exercises maps sanitized UI names to free-exercise-db folder names
var exercises = []Entry{
	{"burpees", "Burpee"},
	{"jumping_jacks", "Jumping_Jack"},
	{"high_knees", "High_Knees"},
	{"mountain_climbers", "Mountain_Climber"},
	{"jump_squats", "Jump_Squat"},
	{"skaters", "Skater_Hop"},
	{"butt_kicks", "Butt_Kicks"},
	{"tuck_jumps", "Tuck_Jump"},
	{"plank_jacks", "Plank_Jack"},
	{"sprint_in_place", "Running"},
	{"push-ups", "Push-up"},
	{"diamond_push-ups", "Diamond_Push-up"},
	{"pike_push-ups", "Pike_Push-up"},
	{"wide_push-ups", "Wide-arm_Push-up"},
	{"decline_push-ups", "Decline_Push-up"},
	{"squats", "Squat"},
	{"lunges", "Lunge"},
	{"bulgarian_split_squats", "Bulgarian_Split_Squat"},
	{"glute_bridges", "Glute_Bridge"},
	{"single-leg_glute_bridges", "Single-leg_Glute_Bridge"},
	{"calf_raises", "Calf_Raise"},
	{"dips", "Bench_Dip"},
	{"plank", "Plank"},
	{"crunches", "Crunch"},
	{"bicycle_crunches", "Bicycle_Crunch"},
	{"leg_raises", "Leg_Raise"},
	{"side_plank", "Side_Plank"},
	{"superman_holds", "Superman"},
	{"wall_sits", "Wall_Sit"},
	{"pistol_squats", "Pistol_Squat"},
	{"archer_push-ups", "Archer_Push-up"},
	{"pseudo_planche_push-ups", "Pseudo_Planche_Push-up"},
	{"single-leg_deadlifts", "Single-leg_Deadlift"},
	{"hollow_body_holds", "Hollow_Body_Hold"},
	{"l-sits", "L-sit"},
	{"handstand_push-ups", "Handstand_Push-up"},
	{"nordic_curls", "Nordic_Hamstring_Curl"},
	{"decline_pike_push-ups", "Decline_Pike_Push-up"},
	{"v-ups", "V-up"},
}

// Default returns the built-in exercise table
func Default() *Table {
	return MustNew(exercises...)
}
