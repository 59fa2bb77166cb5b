package event

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestNewBus 测试创建新的事件总线
func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() 返回 nil")
	}
	if bus.handlers == nil {
		t.Fatal("NewBus() handlers map 未初始化")
	}
}

// TestSubscribeAndPublish 测试订阅和发布事件
func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var received any
	bus.Subscribe("test", func(event any) {
		received = event
	})

	bus.Publish("test", "hello")

	if received != "hello" {
		t.Errorf("handler 收到 %v, 期望 %v", received, "hello")
	}
}

// TestPublishNoSubscribers 测试发布无订阅者的事件不会 panic
func TestPublishNoSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish("nonexistent", "data")
}

// TestPublishOrder 测试 handler 按订阅顺序同步调用
func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		bus.Subscribe("test", func(event any) {
			order = append(order, i)
		})
	}

	bus.Publish("test", nil)

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("调用顺序 = %v, 期望 [0 1 2]", order)
	}
}

// TestUnsubscribe 测试取消订阅只移除对应 handler
func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int
	tokA := bus.Subscribe("test", func(event any) { a++ })
	bus.Subscribe("test", func(event any) { b++ })

	if !bus.Unsubscribe("test", tokA) {
		t.Fatal("Unsubscribe() 应返回 true")
	}
	if bus.Unsubscribe("test", tokA) {
		t.Error("重复 Unsubscribe() 应返回 false")
	}
	if bus.Unsubscribe("other", tokA) {
		t.Error("未知事件 Unsubscribe() 应返回 false")
	}

	bus.Publish("test", nil)

	if a != 0 || b != 1 {
		t.Errorf("a=%d b=%d, 期望 a=0 b=1", a, b)
	}
}

// TestMultipleEvents 测试不同事件名称互不干扰
func TestMultipleEvents(t *testing.T) {
	bus := NewBus()
	var laneReceived, phaseReceived bool

	bus.Subscribe(EventLaneChanged, func(event any) {
		laneReceived = true
	})
	bus.Subscribe(EventPhaseChanged, func(event any) {
		phaseReceived = true
	})

	bus.Publish(EventLaneChanged, LaneChangedEvent{From: 1, To: 0})

	if !laneReceived {
		t.Error("lane handler 应该被调用")
	}
	if phaseReceived {
		t.Error("phase handler 不应该被调用")
	}
}

// TestPanickingHandlerDoesNotStopOthers 测试 handler panic 不影响后续 handler
func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe("test", func(event any) {
		panic("boom")
	})
	bus.Subscribe("test", func(event any) {
		called = true
	})

	bus.Publish("test", nil)

	if !called {
		t.Error("panic 之后的 handler 应该被调用")
	}
}

// TestClose 测试关闭后不再投递
func TestClose(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe("test", func(event any) { called = true })

	bus.Close()
	bus.Publish("test", nil)

	if called {
		t.Error("Close() 后 handler 不应该被调用")
	}
}

// TestConcurrentSubscribeAndPublish 测试并发订阅和发布的线程安全性
func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var count atomic.Int64

	bus.Subscribe("test", func(event any) {
		count.Add(1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish("test", "data")
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe("test", func(event any) {
				count.Add(1)
			})
		}()
	}
	wg.Wait()

	if count.Load() < 100 {
		t.Errorf("至少应该收到 100 次事件, 实际收到 %d 次", count.Load())
	}
}
