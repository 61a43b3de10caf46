package main

import (
	"fmt"
	"log"
	"time"

	"github.com/chewxy/math32"

	"ssao-pipeline/core"
	"ssao-pipeline/internal/opengl"
	"ssao-pipeline/math"
	"ssao-pipeline/scene"
)

// CameraController is a free-fly camera: WASD to move, Q/E for down/up,
// right mouse drag to look around.
type CameraController struct {
	moveSpeed  float32
	lookSpeed  float32
	lastMouseX float64
	lastMouseY float64
	firstMouse bool
	yaw        float32 // radians, 0 looks down -Z
	pitch      float32
}

func NewCameraController() *CameraController {
	return &CameraController{
		moveSpeed:  6.0,
		lookSpeed:  0.003,
		firstMouse: true,
	}
}

func (cc *CameraController) Update(window *core.Window, camera *scene.Camera, deltaTime float32) {
	if deltaTime > 0.05 {
		deltaTime = 0.05
	}

	if window.IsMouseButtonPressed(1) {
		mouseX, mouseY := window.GetCursorPos()
		if cc.firstMouse {
			cc.lastMouseX = mouseX
			cc.lastMouseY = mouseY
			cc.firstMouse = false
		}
		cc.yaw -= float32(mouseX-cc.lastMouseX) * cc.lookSpeed
		cc.pitch += float32(cc.lastMouseY-mouseY) * cc.lookSpeed
		limit := math32.Pi/2 - 0.05
		if cc.pitch > limit {
			cc.pitch = limit
		}
		if cc.pitch < -limit {
			cc.pitch = -limit
		}
		cc.lastMouseX = mouseX
		cc.lastMouseY = mouseY
	} else {
		cc.firstMouse = true
	}

	forward := math.Vec3{
		X: -math32.Sin(cc.yaw) * math32.Cos(cc.pitch),
		Y: math32.Sin(cc.pitch),
		Z: -math32.Cos(cc.yaw) * math32.Cos(cc.pitch),
	}.Normalize()
	right := forward.Cross(math.Vec3Up).Normalize()

	move := math.Vec3{}
	if window.IsKeyPressed(core.KeyW) {
		move = move.Add(forward)
	}
	if window.IsKeyPressed(core.KeyS) {
		move = move.Sub(forward)
	}
	if window.IsKeyPressed(core.KeyD) {
		move = move.Add(right)
	}
	if window.IsKeyPressed(core.KeyA) {
		move = move.Sub(right)
	}
	if window.IsKeyPressed(core.KeyE) {
		move = move.Add(math.Vec3Up)
	}
	if window.IsKeyPressed(core.KeyQ) {
		move = move.Sub(math.Vec3Up)
	}
	if move.Length() > 0 {
		move = move.Normalize().Mul(cc.moveSpeed * deltaTime)
	}

	pos := camera.Position.Add(move)
	camera.SetPosition(pos)
	camera.LookAt(pos.Add(forward), math.Vec3Up)
}

// buildScene assembles a courtyard of boxes around a sphere, the kind of
// geometry where ambient occlusion shows: corners, crevices, and objects
// resting on the ground.
func buildScene() *scene.Scene {
	s := scene.NewScene()

	matGround := scene.NewMaterial("Ground", core.Color{R: 0.62, G: 0.60, B: 0.55, A: 1})
	matGround.Shininess = 4
	matGround.Specular = core.Color{R: 0.05, G: 0.05, B: 0.05, A: 1}

	matStone := scene.NewMaterial("Stone", core.Color{R: 0.58, G: 0.55, B: 0.50, A: 1})
	matStone.Shininess = 8

	matBrick := scene.NewMaterial("Brick", core.Color{R: 0.70, G: 0.43, B: 0.30, A: 1})
	matBrick.Shininess = 4

	matSphere := scene.NewMaterial("Sphere", core.Color{R: 0.85, G: 0.85, B: 0.88, A: 1})
	matSphere.Shininess = 48

	addBox := func(name string, pos math.Vec3, sx, sy, sz float32, mat *scene.Material) {
		m := scene.CreateCube(1.0)
		m.Material = mat
		n := scene.NewNode(name)
		n.Mesh = m
		n.SetPosition(pos)
		n.SetScale(math.Vec3{X: sx, Y: sy, Z: sz})
		s.AddNode(n)
	}

	groundMesh := scene.CreatePlane(40, 40, 1)
	groundMesh.Material = matGround
	groundNode := scene.NewNode("Ground")
	groundNode.Mesh = groundMesh
	s.AddNode(groundNode)

	gridMesh := scene.CreateGrid(40, 20)
	gridNode := scene.NewNode("Grid")
	gridNode.Mesh = gridMesh
	s.AddNode(gridNode)

	// Two walls meeting in a concave corner
	addBox("Wall_N", math.Vec3{X: 0, Y: 1.5, Z: -8}, 16, 3, 1, matStone)
	addBox("Wall_W", math.Vec3{X: -8, Y: 1.5, Z: 0}, 1, 3, 16, matStone)

	// Stacked crates against the north wall
	addBox("Crate_A", math.Vec3{X: -3, Y: 0.5, Z: -7}, 1, 1, 1, matBrick)
	addBox("Crate_B", math.Vec3{X: -1.9, Y: 0.5, Z: -7}, 1, 1, 1, matBrick)
	addBox("Crate_C", math.Vec3{X: -2.45, Y: 1.5, Z: -7}, 1, 1, 1, matBrick)

	// Tight alley between two blocks
	addBox("Block_A", math.Vec3{X: 3, Y: 1, Z: -2}, 2, 2, 4, matStone)
	addBox("Block_B", math.Vec3{X: 5.8, Y: 1, Z: -2}, 2, 2, 4, matStone)

	// Low platform with a sphere resting on it
	addBox("Platform", math.Vec3{X: -3, Y: 0.25, Z: 3}, 4, 0.5, 4, matStone)
	sphereMesh := scene.CreateSphere(0.8, 24, 16)
	sphereMesh.Material = matSphere
	sphereNode := scene.NewNode("Sphere")
	sphereNode.Mesh = sphereMesh
	sphereNode.SetPosition(math.Vec3{X: -3, Y: 1.3, Z: 3})
	s.AddNode(sphereNode)

	s.Light = scene.NewDirectionalLight(math.Vec3{X: 0.5, Y: -1, Z: -0.3}.Normalize())
	s.Light.Intensity = 1.1

	camera := scene.NewCamera(math32.Pi/3, 16.0/9.0, 0.1, 200.0)
	camera.SetPosition(math.Vec3{X: 6, Y: 4, Z: 10})
	camera.LookAt(math.Vec3{X: 0, Y: 1, Z: 0}, math.Vec3Up)
	s.SetCamera(camera)

	return s
}

func main() {
	windowConfig := core.DefaultWindowConfig()
	windowConfig.Title = "SSAO Pipeline"

	window, err := core.NewWindow(windowConfig)
	if err != nil {
		fmt.Printf("Failed to create window: %v\n", err)
		return
	}
	defer window.Destroy()

	pipeline, err := opengl.NewPipeline(opengl.DefaultConfig())
	if err != nil {
		fmt.Printf("Failed to create pipeline: %v\n", err)
		return
	}
	defer pipeline.Destroy()

	s := buildScene()
	camController := NewCameraController()
	camController.yaw = math32.Atan2(6, 10) // face the courtyard center
	camController.pitch = -0.25

	fmt.Println("===========================================")
	fmt.Println("  SSAO Pipeline Demo")
	fmt.Println("===========================================")
	fmt.Println("")
	fmt.Println("CONTROLS:")
	fmt.Println("  W / A / S / D    - Move")
	fmt.Println("  Q / E            - Down / up")
	fmt.Println("  Right Mouse Drag - Look around")
	fmt.Println("  1                - Lit with ambient occlusion")
	fmt.Println("  2                - Ambient occlusion only")
	fmt.Println("  3                - Lit, occlusion off")
	fmt.Println("  F                - Toggle dithering")
	fmt.Println("  ESC              - Exit")
	fmt.Println("===========================================")
	fmt.Println("")

	ditherKeyWasDown := false
	frameCount := 0
	lastTime := time.Now()
	prevFrame := time.Now()
	deltaTime := float32(0.016)

	for !window.ShouldClose() {
		window.PollEvents()

		if window.IsKeyPressed(core.KeyEscape) {
			break
		}

		if window.IsKeyPressed(core.Key1) && pipeline.DisplayMode() != opengl.ModeLit {
			pipeline.SetDisplayMode(opengl.ModeLit)
			fmt.Println("[Display] lit")
		}
		if window.IsKeyPressed(core.Key2) && pipeline.DisplayMode() != opengl.ModeAOOnly {
			pipeline.SetDisplayMode(opengl.ModeAOOnly)
			fmt.Println("[Display] ao-only")
		}
		if window.IsKeyPressed(core.Key3) && pipeline.DisplayMode() != opengl.ModeLitNoAO {
			pipeline.SetDisplayMode(opengl.ModeLitNoAO)
			fmt.Println("[Display] lit-no-ao")
		}

		fDown := window.IsKeyPressed(core.KeyF)
		if fDown && !ditherKeyWasDown {
			pipeline.SetDither(!pipeline.Dither())
			fmt.Printf("[Dither] %s\n", map[bool]string{true: "ON", false: "OFF"}[pipeline.Dither()])
		}
		ditherKeyWasDown = fDown

		camController.Update(window, s.Camera, deltaTime)

		width, height := window.GetFramebufferSize()
		if err := pipeline.RenderFrame(s, width, height); err != nil {
			// A failed frame is dropped; the next one gets a fresh try.
			log.Printf("render: %v", err)
		}

		window.SwapBuffers()

		frameCount++
		now := time.Now()
		deltaTime = float32(now.Sub(prevFrame).Seconds())
		prevFrame = now
		if now.Sub(lastTime).Seconds() >= 1.0 {
			window.SetTitle(fmt.Sprintf("SSAO Pipeline | FPS: %d | mode: %s",
				frameCount, pipeline.DisplayMode()))
			frameCount = 0
			lastTime = now
		}
	}

	fmt.Println("Exiting...")
}
